package model

import (
	"encoding/json"
	"sort"
	"strings"
)

type Doctor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	Qualification string `json:"qualification"`
	// Availability maps a weekday to "HH:MM-HH:MM" ranges.
	Availability   map[string][]string `json:"availability"`
	AvailableSlots []string            `json:"availableSlots"`
}

// UnmarshalJSON accepts both "id" and the backend's "_id".
func (d *Doctor) UnmarshalJSON(b []byte) error {
	type alias Doctor
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = aux.MongoID
	}
	return nil
}

// Matches reports whether the doctor's name and specialty contain the given
// substrings, ignoring case. Empty queries match everything.
func (d Doctor) Matches(name, specialty string) bool {
	return strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) &&
		strings.Contains(strings.ToLower(d.Specialty), strings.ToLower(specialty))
}

var weekdayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// FormatAvailability renders the weekly availability as
// "Monday (9:00 AM - 1:00 PM), Friday (2:00 PM - 5:00 PM)".
func FormatAvailability(availability map[string][]string) string {
	days := make([]string, 0, len(availability))
	for day := range availability {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		oi, iok := weekdayOrder[strings.ToLower(days[i])]
		oj, jok := weekdayOrder[strings.ToLower(days[j])]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return days[i] < days[j]
		}
	})

	parts := make([]string, 0, len(days))
	for _, day := range days {
		ranges := make([]string, 0, len(availability[day]))
		for _, r := range availability[day] {
			ranges = append(ranges, FormatSlot(r))
		}
		parts = append(parts, day+" ("+strings.Join(ranges, ", ")+")")
	}
	return strings.Join(parts, ", ")
}
