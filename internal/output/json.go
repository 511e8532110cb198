package output

import (
	"time"

	"carebook/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// AppointmentOutput represents an appointment in JSON output.
type AppointmentOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// NewAppointmentOutput creates an AppointmentOutput from an Appointment.
func NewAppointmentOutput(a *model.Appointment) *AppointmentOutput {
	return &AppointmentOutput{
		ID:    a.ID,
		Title: a.Title,
		Date:  a.Date.Format(time.RFC3339),
	}
}

// SaveResponse represents a create/edit command output in JSON.
type SaveResponse struct {
	Status      string             `json:"status"`
	Appointment *AppointmentOutput `json:"appointment"`
	Handles     []string           `json:"alert_handles,omitempty"`
	Notice      string             `json:"notice,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// ListResponse represents the appointment list output in JSON.
type ListResponse struct {
	Appointments []*AppointmentOutput `json:"appointments"`
	TotalCount   int                  `json:"total_count"`
}

// AlertOutput represents a pending alert in JSON output.
type AlertOutput struct {
	Handle        string `json:"handle"`
	AppointmentID string `json:"appointment_id"`
	Kind          string `json:"kind"`
	FireAt        string `json:"fire_at"`
	Delivered     bool   `json:"delivered"`
	Acknowledged  bool   `json:"acknowledged"`
}

// NewAlertOutput creates an AlertOutput from a PendingAlert.
func NewAlertOutput(a *model.PendingAlert) *AlertOutput {
	return &AlertOutput{
		Handle:        string(a.Handle),
		AppointmentID: a.AppointmentID,
		Kind:          string(a.Kind),
		FireAt:        a.FireAt.Format(time.RFC3339),
		Delivered:     a.Delivered,
		Acknowledged:  a.Acknowledged,
	}
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintError prints an error response.
func (j *JSONFormatter) PrintError(errText, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Error:      errText,
		Suggestion: suggestion,
	})
}
