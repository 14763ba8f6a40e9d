package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorMatches(t *testing.T) {
	doctors := []Doctor{
		{ID: "1", Name: "Dr. John Smith", Specialty: "Cardiology"},
		{ID: "2", Name: "Dr. Anna SMITHERS", Specialty: "Dermatology"},
		{ID: "3", Name: "Dr. Jane Doe", Specialty: "Cardiology"},
	}

	var got []string
	for _, d := range doctors {
		if d.Matches("smith", "") {
			got = append(got, d.ID)
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)

	assert.True(t, doctors[2].Matches("", "cardio"))
	assert.False(t, doctors[1].Matches("smith", "cardio"))
}

func TestDoctorUnmarshalID(t *testing.T) {
	var d Doctor
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","name":"Dr. X"}`), &d))
	assert.Equal(t, "abc", d.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"xyz","_id":"abc"}`), &d))
	assert.Equal(t, "xyz", d.ID)
}

func TestFormatAvailability(t *testing.T) {
	got := FormatAvailability(map[string][]string{
		"Friday": {"14:00-17:00"},
		"Monday": {"09:00-13:00", "00:30-01:00"},
	})
	assert.Equal(t, "Monday (9:00 AM - 1:00 PM, 12:30 AM - 1:00 AM), Friday (2:00 PM - 5:00 PM)", got)
}

func TestTo12Hour(t *testing.T) {
	assert.Equal(t, "12:00 PM", To12Hour("12:00"))
	assert.Equal(t, "11:45 PM", To12Hour("23:45"))
	assert.Equal(t, "bogus", To12Hour("bogus"))
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "9:30 AM", FormatSlot("09:30"))
	assert.Equal(t, "9:00 AM - 9:30 AM", FormatSlot("09:00-09:30"))
	assert.Equal(t, "11:30 AM - 12:00 PM", FormatSlot(" 11:30 - 12:00 "))
	assert.Equal(t, "later", FormatSlot("later"))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-12-28", NormalizeDate("2024-12-28T00:00:00.000Z"))
	assert.Equal(t, "2024-12-28", NormalizeDate("2024-12-28"))
	assert.Equal(t, "soon", NormalizeDate("soon"))
}

func TestBookingStateChangeDate(t *testing.T) {
	b := BookingState{Date: "2024-12-28", Slot: "09:00", Slots: []string{"09:00"}}
	assert.True(t, b.CanSubmit())

	b.ChangeDate("2024-12-29")
	assert.Empty(t, b.Slot)
	assert.Empty(t, b.Slots)
	assert.False(t, b.CanSubmit())
}

func TestEditModalCanSave(t *testing.T) {
	m := EditModal{Date: "2024-12-28", Slot: "09:00", Options: []string{"10:00"}}
	assert.False(t, m.CanSave())

	m.Options = []string{"09:00", "10:00"}
	assert.True(t, m.CanSave())
}

func TestDashboardRemoveAndPatch(t *testing.T) {
	d := DashboardState{Appointments: []Appointment{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	d.Remove("b")
	assert.Equal(t, []Appointment{{ID: "a"}, {ID: "c"}}, d.Appointments)

	d.Patch("c", "2024-12-30", "11:00")
	got, ok := d.Find("c")
	require.True(t, ok)
	assert.Equal(t, "2024-12-30", got.Date)
	assert.Equal(t, "11:00", got.TimeSlot)
}
