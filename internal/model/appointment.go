package model

// DoctorSummary is the doctor embedded in an appointment by the backend.
type DoctorSummary struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type Appointment struct {
	ID          string        `json:"_id"`
	Doctor      DoctorSummary `json:"doctorId"`
	PatientName string        `json:"patientName"`
	Date        string        `json:"date"`
	TimeSlot    string        `json:"timeSlot"`
}

type CreateAppointmentRequest struct {
	DoctorID    string `json:"doctorId"`
	PatientName string `json:"patientName"`
	Date        string `json:"date"`
	TimeSlot    string `json:"timeSlot"`
}

type UpdateAppointmentRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}
