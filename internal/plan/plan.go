// Package plan computes the alert schedule for an appointment.
//
// The planner is a pure function of the appointment, the current time, and
// its options: it performs no I/O and never reads the ambient clock, which
// keeps the time arithmetic directly testable.
package plan

import (
	"fmt"
	"time"

	"carebook/internal/model"
)

// AlertRequest describes one alert the notification port should deliver.
type AlertRequest struct {
	Kind   model.AlertKind
	FireAt time.Time
	Title  string
	Body   string
}

// Plan is the computed alert schedule for a single appointment.
type Plan struct {
	Requests []AlertRequest

	// Notice is a user-visible message set when the reminder window has
	// already passed and no reminder was planned.
	Notice string
}

// Options configures the planner.
type Options struct {
	// ReminderLead is how long before the appointment the reminder fires.
	ReminderLead time.Duration

	// SuppressPastAtTime drops the at-time alert when the appointment date
	// is not in the future. The companion app always requested it, so the
	// default keeps that behavior.
	SuppressPastAtTime bool
}

// DefaultOptions returns planner options matching the companion app.
func DefaultOptions() Options {
	return Options{ReminderLead: 5 * time.Minute}
}

// Planner computes alert schedules.
type Planner struct {
	opts Options
}

// NewPlanner creates a planner with the given options. A zero ReminderLead
// falls back to the default.
func NewPlanner(opts Options) *Planner {
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = DefaultOptions().ReminderLead
	}
	return &Planner{opts: opts}
}

// Compute returns the alert plan for an appointment at the given time.
//
// A reminder is planned at Date - ReminderLead only when that instant is
// still in the future; otherwise the plan carries a notice instead. The
// at-time alert is planned unconditionally unless SuppressPastAtTime is set
// and the appointment date has already passed.
func (p *Planner) Compute(appt *model.Appointment, now time.Time) Plan {
	var out Plan

	reminderAt := appt.Date.Add(-p.opts.ReminderLead)
	if reminderAt.After(now) {
		out.Requests = append(out.Requests, AlertRequest{
			Kind:   model.AlertReminder,
			FireAt: reminderAt,
			Title:  "Appointment Reminder",
			Body:   fmt.Sprintf("You have an appointment: %q at %s", appt.Title, appt.TimeOfDay()),
		})
	} else {
		out.Notice = "The appointment time must be in the future to set a reminder."
	}

	if p.opts.SuppressPastAtTime && !appt.Date.After(now) {
		return out
	}

	out.Requests = append(out.Requests, AlertRequest{
		Kind:   model.AlertAtTime,
		FireAt: appt.Date,
		Title:  "Your Appointment",
		Body:   fmt.Sprintf("Your appointment %q is happening now.", appt.Title),
	})

	return out
}

// ReminderLead returns the configured reminder lead time.
func (p *Planner) ReminderLead() time.Duration {
	return p.opts.ReminderLead
}
