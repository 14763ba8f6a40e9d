package model

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message shown on the next render.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

func Success(msg string) *Notice { return &Notice{Kind: NoticeSuccess, Message: msg} }
func Failure(msg string) *Notice { return &Notice{Kind: NoticeError, Message: msg} }

// BookingState is the booking page's form for one session.
type BookingState struct {
	DoctorID string  `json:"doctorId"`
	Doctor   *Doctor `json:"doctor,omitempty"`
	// SessionDate is the Session.SelectedBookingDate the form was built for.
	SessionDate string   `json:"sessionDate"`
	Date        string   `json:"date"`
	Slot        string   `json:"slot"`
	Slots       []string `json:"slots"`
	Error       string   `json:"error,omitempty"`
}

// ChangeDate moves the form to another date. The selected slot and the slot
// list belong to the previous date and are dropped.
func (b *BookingState) ChangeDate(date string) {
	if b.Date == date {
		return
	}
	b.Date = date
	b.Slot = ""
	b.Slots = nil
}

// Offers reports whether slot is in the loaded slot list.
func (b BookingState) Offers(slot string) bool {
	return contains(b.Slots, slot)
}

func (b BookingState) CanSubmit() bool {
	return b.Date != "" && b.Slot != "" && b.Offers(b.Slot)
}

// EditModal is the dashboard's open edit dialog.
type EditModal struct {
	AppointmentID string   `json:"appointmentId"`
	DoctorID      string   `json:"doctorId"`
	DoctorName    string   `json:"doctorName"`
	Date          string   `json:"date"`
	Slot          string   `json:"slot"`
	Options       []string `json:"options"`
	Error         string   `json:"error,omitempty"`
}

func (m *EditModal) ChangeDate(date string) {
	if m.Date == date {
		return
	}
	m.Date = date
	m.Slot = ""
	m.Options = nil
}

func (m EditModal) CanSave() bool {
	return m.Date != "" && m.Slot != "" && contains(m.Options, m.Slot)
}

// DashboardState caches the appointment list of one session.
type DashboardState struct {
	Owner        string        `json:"owner"`
	Loaded       bool          `json:"loaded"`
	Appointments []Appointment `json:"appointments"`
	Modal        *EditModal    `json:"modal,omitempty"`
	Notice       *Notice       `json:"notice,omitempty"`
}

func (d DashboardState) Find(id string) (Appointment, bool) {
	for _, a := range d.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return Appointment{}, false
}

// Remove drops the appointment with id and keeps the order of the others.
func (d *DashboardState) Remove(id string) {
	kept := make([]Appointment, 0, len(d.Appointments))
	for _, a := range d.Appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	d.Appointments = kept
}

// Patch updates date and slot of the appointment with id in place.
func (d *DashboardState) Patch(id, date, slot string) {
	for i := range d.Appointments {
		if d.Appointments[i].ID == id {
			d.Appointments[i].Date = date
			d.Appointments[i].TimeSlot = slot
			return
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
