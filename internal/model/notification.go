package model

import (
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyReminder    NotificationType = "reminder"
	NotifyAppointment NotificationType = "appointment"
	NotifyTest        NotificationType = "test"
)

// Notification represents a message to be delivered through channels.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"` // Hex color for embeds
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// Notification colors (Discord-compatible hex values).
const (
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x5865F2 // Blurple
	ColorError   = 0xED4245 // Red
	ColorPrimary = 0x2260FF // Carebook blue
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyReminder:
		return ColorWarning
	case NotifyAppointment:
		return ColorPrimary
	case NotifyTest:
		return ColorInfo
	default:
		return ColorInfo
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyReminder:
		return "Appointment Reminder"
	case NotifyAppointment:
		return "Your Appointment"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
