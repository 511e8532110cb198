package storage

import (
	"sort"
	"time"

	"carebook/internal/model"
)

// AlertRepo provides operations for PendingAlert entities.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// Create stores a pending alert under its handle.
func (r *AlertRepo) Create(alert *model.PendingAlert) error {
	if alert.Key == "" {
		alert.Key = model.GenerateAlertKey(alert.Handle)
	}
	return r.db.Set(alert)
}

// Get retrieves an alert by handle.
func (r *AlertRepo) Get(handle model.AlertHandle) (*model.PendingAlert, error) {
	alert := &model.PendingAlert{}
	if err := r.db.Get(model.GenerateAlertKey(handle), alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// GetByShortHandle retrieves an alert by handle prefix match.
func (r *AlertRepo) GetByShortHandle(short string) (*model.PendingAlert, error) {
	alerts, err := r.List()
	if err != nil {
		return nil, err
	}

	var matches []*model.PendingAlert
	for _, a := range alerts {
		h := string(a.Handle)
		if len(short) <= len(h) && h[:len(short)] == short {
			matches = append(matches, a)
		}
	}

	if len(matches) == 0 {
		return nil, ErrKeyNotFound
	}
	if len(matches) > 1 {
		return nil, &AmbiguousMatchError{Matches: len(matches)}
	}
	return matches[0], nil
}

// AmbiguousMatchError is returned when multiple alerts match a short handle.
type AmbiguousMatchError struct {
	Matches int
}

func (e *AmbiguousMatchError) Error() string {
	return "multiple alerts match the given handle"
}

// List retrieves all alerts sorted by fire time.
func (r *AlertRepo) List() ([]*model.PendingAlert, error) {
	alerts, err := GetAllByPrefix(r.db, model.PrefixAlert+":", func() *model.PendingAlert {
		return &model.PendingAlert{}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].FireAt.Before(alerts[j].FireAt)
	})
	return alerts, nil
}

// ListPending retrieves all undelivered alerts.
func (r *AlertRepo) ListPending() ([]*model.PendingAlert, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var pending []*model.PendingAlert
	for _, a := range all {
		if !a.Delivered {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// ListDue retrieves undelivered alerts whose fire time has passed.
func (r *AlertRepo) ListDue(now time.Time) ([]*model.PendingAlert, error) {
	pending, err := r.ListPending()
	if err != nil {
		return nil, err
	}

	var due []*model.PendingAlert
	for _, a := range pending {
		if a.IsDue(now) {
			due = append(due, a)
		}
	}
	return due, nil
}

// ListByAppointment retrieves all alerts recorded for an appointment.
func (r *AlertRepo) ListByAppointment(appointmentID string) ([]*model.PendingAlert, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var result []*model.PendingAlert
	for _, a := range all {
		if a.AppointmentID == appointmentID {
			result = append(result, a)
		}
	}
	return result, nil
}

// Delete removes an alert by handle.
func (r *AlertRepo) Delete(handle model.AlertHandle) error {
	return r.db.Delete(model.GenerateAlertKey(handle))
}

// MarkDelivered marks an alert as delivered at the given time.
func (r *AlertRepo) MarkDelivered(handle model.AlertHandle, at time.Time) error {
	alert, err := r.Get(handle)
	if err != nil {
		return err
	}

	alert.Delivered = true
	alert.DeliveredAt = at

	return r.db.Set(alert)
}

// MarkAcknowledged marks a delivered alert as acknowledged by the user.
func (r *AlertRepo) MarkAcknowledged(handle model.AlertHandle) (*model.PendingAlert, error) {
	alert, err := r.Get(handle)
	if err != nil {
		return nil, err
	}

	alert.Acknowledged = true
	if err := r.db.Set(alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Exists checks if an alert exists.
func (r *AlertRepo) Exists(handle model.AlertHandle) (bool, error) {
	return r.db.Exists(model.GenerateAlertKey(handle))
}
