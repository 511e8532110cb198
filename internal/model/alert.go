package model

import (
	"fmt"
	"time"
)

// AlertKind identifies which of the two alerts an appointment produces.
type AlertKind string

// Alert kinds.
const (
	AlertReminder AlertKind = "reminder"
	AlertAtTime   AlertKind = "at_time"
)

// AlertHandle is the opaque identifier returned by the notification port
// for a scheduled alert, used for later cancellation.
type AlertHandle string

// PendingAlert is a scheduled alert waiting to fire. It is persisted so
// that edits and deletes can find and cancel alerts belonging to an
// appointment, and so the daemon survives restarts without losing the plan.
type PendingAlert struct {
	Key           string      `json:"key"`
	Handle        AlertHandle `json:"handle"`
	AppointmentID string      `json:"appointment_id"`
	Kind          AlertKind   `json:"kind"`
	FireAt        time.Time   `json:"fire_at"`
	Title         string      `json:"title"`
	Body          string      `json:"body"`
	CreatedAt     time.Time   `json:"created_at"`
	Delivered     bool        `json:"delivered"`
	DeliveredAt   time.Time   `json:"delivered_at,omitempty"`
	Acknowledged  bool        `json:"acknowledged"`
}

// SetKey sets the database key for this alert.
func (p *PendingAlert) SetKey(key string) {
	p.Key = key
}

// GetKey returns the database key for this alert.
func (p *PendingAlert) GetKey() string {
	return p.Key
}

// IsDue returns true if the alert should have fired by the given time.
func (p *PendingAlert) IsDue(now time.Time) bool {
	return !p.Delivered && !p.FireAt.After(now)
}

// ShortHandle returns the first 6 characters of the handle for display.
func (p *PendingAlert) ShortHandle() string {
	if len(p.Handle) > 6 {
		return string(p.Handle[:6])
	}
	return string(p.Handle)
}

// KindLabel returns a human-readable label for the alert kind.
func (p *PendingAlert) KindLabel() string {
	switch p.Kind {
	case AlertReminder:
		return "Reminder"
	case AlertAtTime:
		return "At time"
	default:
		return string(p.Kind)
	}
}

// GenerateAlertKey generates a database key for an alert from its handle.
func GenerateAlertKey(handle AlertHandle) string {
	return fmt.Sprintf("%s:%s", PrefixAlert, handle)
}
