package output

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"carebook/internal/model"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary = lipgloss.Color("#2260FF") // Carebook blue
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red
	colorSuccess = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

// render applies a style if color is enabled.
func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a section title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(format string, a ...interface{}) {
	c.Println(c.render(styleSuccess, fmt.Sprintf(format, a...)))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(format string, a ...interface{}) {
	c.Println(c.render(styleWarning, fmt.Sprintf(format, a...)))
}

// Error prints an error message.
func (c *CLIFormatter) Error(format string, a ...interface{}) {
	c.Println(c.render(styleError, fmt.Sprintf(format, a...)))
}

// PrintAppointment prints a single appointment line.
func (c *CLIFormatter) PrintAppointment(a *model.Appointment) {
	c.Printf("%s  %s  %s\n",
		c.render(styleMuted, a.ShortID()),
		c.render(styleBold, a.Title),
		a.Date.Format("2006-01-02 15:04"))
}

// PrintAppointmentList prints the appointment collection.
func (c *CLIFormatter) PrintAppointmentList(appts []*model.Appointment) {
	if len(appts) == 0 {
		c.Println(c.render(styleMuted, "No appointments yet. Add one!"))
		return
	}

	c.Title("Appointments")
	for _, a := range appts {
		c.PrintAppointment(a)
	}
}

// PrintAlert prints a single pending alert line.
func (c *CLIFormatter) PrintAlert(a *model.PendingAlert, now time.Time) {
	status := c.render(styleMuted, "pending")
	if a.Acknowledged {
		status = c.render(styleSuccess, "acknowledged")
	} else if a.Delivered {
		status = c.render(styleSuccess, "delivered")
	} else if a.IsDue(now) {
		status = c.render(styleWarning, "due")
	}

	c.Printf("%s  %-8s  %s  %s\n",
		c.render(styleMuted, a.ShortHandle()),
		a.KindLabel(),
		a.FireAt.Format("2006-01-02 15:04"),
		status)
}

// PrintAlertList prints the pending alert queue.
func (c *CLIFormatter) PrintAlertList(alerts []*model.PendingAlert, now time.Time) {
	if len(alerts) == 0 {
		c.Println(c.render(styleMuted, "No scheduled alerts."))
		return
	}

	c.Title("Scheduled alerts")
	for _, a := range alerts {
		c.PrintAlert(a, now)
	}
}

// PrintChannel prints a single channel line.
func (c *CLIFormatter) PrintChannel(ch *model.Channel) {
	state := c.render(styleSuccess, "enabled")
	if !ch.Enabled {
		state = c.render(styleMuted, "disabled")
	}
	c.Printf("%s  %-8s  %s  %s\n",
		c.render(styleBold, ch.Name),
		ch.Type,
		ch.MaskedURL(),
		state)
	if ch.LastError != "" {
		c.Printf("  %s\n", c.render(styleError, "last error: "+ch.LastError))
	}
}

// PrintChannelList prints the channel collection.
func (c *CLIFormatter) PrintChannelList(channels []*model.Channel) {
	if len(channels) == 0 {
		c.Println(c.render(styleMuted, "No channels configured. Add one with 'carebook channel add'."))
		return
	}

	c.Title("Channels")
	for _, ch := range channels {
		c.PrintChannel(ch)
	}
}
