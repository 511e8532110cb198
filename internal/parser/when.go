// Package parser provides natural-language date parsing for the CLI.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// WhenResult holds the parsed appointment time and any error.
type WhenResult struct {
	Time  time.Time
	Error error
}

// relativeRegex matches relative time expressions like "+5m", "+1h", "+2d".
var relativeRegex = regexp.MustCompile(`^\+(\d+)([smhdw])$`)

// ParseWhen parses a natural language date/time expression relative to now.
// Supports formats like:
//   - "+5m", "+1h", "+2d" (relative)
//   - "friday 5pm", "tomorrow 2pm" (natural language)
//   - "2026-09-15 14:00" (ISO format)
//
// Past instants are accepted: the store allows past appointments and the
// planner decides what to do with them.
func ParseWhen(input string, now time.Time) WhenResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return WhenResult{Error: fmt.Errorf("date is required")}
	}

	if match := relativeRegex.FindStringSubmatch(input); match != nil {
		return parseRelative(match[1], match[2], now)
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}

	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return WhenResult{Error: fmt.Errorf("could not parse date %q", input)}
	}

	return WhenResult{Time: result.Time}
}

// parseRelative parses relative time expressions.
func parseRelative(numStr, unit string, now time.Time) WhenResult {
	num, _ := strconv.Atoi(numStr)
	if num <= 0 {
		return WhenResult{Error: fmt.Errorf("invalid duration: must be positive")}
	}

	var d time.Duration
	switch unit {
	case "s":
		d = time.Duration(num) * time.Second
	case "m":
		d = time.Duration(num) * time.Minute
	case "h":
		d = time.Duration(num) * time.Hour
	case "d":
		d = time.Duration(num) * 24 * time.Hour
	case "w":
		d = time.Duration(num) * 7 * 24 * time.Hour
	default:
		return WhenResult{Error: fmt.Errorf("invalid time unit: %s", unit)}
	}

	return WhenResult{Time: now.Add(d)}
}

// ParseWhenArgs parses a date from command arguments, joining multiple args
// into a single string for natural language parsing.
func ParseWhenArgs(args []string, now time.Time) WhenResult {
	if len(args) == 0 {
		return WhenResult{Error: fmt.Errorf("date is required")}
	}
	return ParseWhen(strings.Join(args, " "), now)
}

// FormatWhen formats an appointment time for display.
func FormatWhen(t, now time.Time) string {
	var datePart string
	switch {
	case isSameDay(t, now):
		datePart = "Today"
	case isSameDay(t, now.AddDate(0, 0, 1)):
		datePart = "Tomorrow"
	case t.After(now) && t.Sub(now) < 7*24*time.Hour:
		datePart = t.Format("Monday")
	default:
		datePart = t.Format("Mon, Jan 2")
	}

	return datePart + " at " + t.Format("15:04")
}

// isSameDay checks if two times are on the same day.
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
