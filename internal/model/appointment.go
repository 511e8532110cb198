package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment represents a single scheduled medical appointment.
//
// The collection of appointments is persisted as one snapshot record
// (KeyAppointments) holding the full JSON array, so Appointment does not
// implement Model; it has no database key of its own.
type Appointment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAppointment creates an appointment with a fresh unique ID.
func NewAppointment(title string, date, now time.Time) *Appointment {
	return &Appointment{
		ID:        uuid.New().String(),
		Title:     title,
		Date:      date,
		CreatedAt: now,
	}
}

// ShortID returns the first 6 characters of the ID for display.
func (a *Appointment) ShortID() string {
	if len(a.ID) > 6 {
		return a.ID[:6]
	}
	return a.ID
}

// TitleIsBlank returns true if the title is empty or whitespace-only.
func (a *Appointment) TitleIsBlank() bool {
	return strings.TrimSpace(a.Title) == ""
}

// TimeOfDay returns the appointment time formatted as 24-hour HH:mm.
func (a *Appointment) TimeOfDay() string {
	return a.Date.Format("15:04")
}

// IsPast returns true if the appointment date is before the given time.
func (a *Appointment) IsPast(now time.Time) bool {
	return a.Date.Before(now)
}

// Clone returns a copy of the appointment.
func (a *Appointment) Clone() *Appointment {
	c := *a
	return &c
}
