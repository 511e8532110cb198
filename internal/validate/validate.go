// Package validate provides input validation helpers for the Carebook CLI.
package validate

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"carebook/internal/errors"
)

const (
	// MaxTitleLength is the maximum length for an appointment title.
	MaxTitleLength = 200
	// MaxChannelNameLength is the maximum length for a channel name.
	MaxChannelNameLength = 50
	// MaxURLLength is the maximum length for a channel URL.
	MaxURLLength = 2048
)

// Title validates an appointment title. Blank titles block the save.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.NewUserError(
			"Please enter a title for the appointment",
			"Appointment titles cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errors.NewUserErrorWithField("title", title,
			"Title too long",
			"Titles must be 200 characters or fewer")
	}
	return nil
}

// Date validates an appointment date.
func Date(date time.Time) error {
	if date.IsZero() {
		return errors.NewUserError(
			"Appointment date is required",
			"Provide a date and time, e.g. 'tomorrow 2pm' or '2026-09-15 14:00'")
	}
	return nil
}

// ChannelName validates a channel name.
func ChannelName(name string) error {
	if name == "" {
		return errors.NewUserError("Channel name cannot be empty", "Provide a channel name")
	}
	if utf8.RuneCountInString(name) > MaxChannelNameLength {
		return errors.NewUserErrorWithField("channel", name,
			"Channel name too long",
			"Channel names must be 50 characters or fewer")
	}
	return nil
}

// ChannelURL validates a webhook URL.
func ChannelURL(raw string) error {
	if raw == "" {
		return errors.NewUserError("Channel URL cannot be empty", "Provide a webhook URL")
	}
	if len(raw) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewUserErrorWithField("url", raw,
			"Invalid webhook URL",
			"Use an absolute http or https URL")
	}
	return nil
}
