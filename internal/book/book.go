// Package book implements the appointment store and reminder scheduling
// driver: a durable, queryable collection of appointments whose every
// mutation re-plans the associated alerts through the notification port.
package book

import (
	"context"
	"strings"
	"time"

	"github.com/jmhodges/clock"

	"carebook/internal/errors"
	"carebook/internal/logging"
	"carebook/internal/model"
	"carebook/internal/notify"
	"carebook/internal/plan"
	"carebook/internal/storage"
	"carebook/internal/validate"
)

// Book owns the in-memory appointment list, the source of truth for all
// operations. Persistence mirrors it with full snapshots; scheduling follows
// each mutation. Persistence and scheduling are independent: a scheduling
// failure never rolls back a successful save.
type Book struct {
	repo    *storage.SnapshotRepo
	alerts  *storage.AlertRepo
	planner *plan.Planner
	port    notify.Port
	clk     clock.Clock

	appts  []*model.Appointment
	loaded bool
}

// New creates an appointment book. The clock is injectable so scheduling
// arithmetic can be tested against a fake time source.
func New(repo *storage.SnapshotRepo, alerts *storage.AlertRepo, planner *plan.Planner, port notify.Port, clk clock.Clock) *Book {
	if clk == nil {
		clk = clock.New()
	}
	return &Book{
		repo:    repo,
		alerts:  alerts,
		planner: planner,
		port:    port,
		clk:     clk,
	}
}

// SaveResult reports the outcome of a create or edit, including the
// user-visible notice when the reminder window had already passed and any
// non-fatal warnings from persistence or scheduling.
type SaveResult struct {
	Appointment *model.Appointment
	Handles     []model.AlertHandle
	Notice      string
	Warnings    []string
}

// Load reads the persisted snapshot into memory. Missing or corrupt state
// degrades to an empty collection; Load never fails startup.
func (b *Book) Load() error {
	appts, err := b.repo.Load()
	if err != nil {
		return err
	}
	b.appts = appts
	b.loaded = true
	return nil
}

// List returns the appointments in insertion order.
func (b *Book) List() ([]*model.Appointment, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]*model.Appointment, len(b.appts))
	for i, a := range b.appts {
		out[i] = a.Clone()
	}
	return out, nil
}

// Get returns the appointment with the given ID.
func (b *Book) Get(id string) (*model.Appointment, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}
	for _, a := range b.appts {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return nil, errors.ErrAppointmentNotFound
}

// GetByShortID returns the appointment whose ID starts with the prefix.
func (b *Book) GetByShortID(short string) (*model.Appointment, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}

	var match *model.Appointment
	for _, a := range b.appts {
		if strings.HasPrefix(a.ID, short) {
			if match != nil {
				return nil, errors.NewUserErrorWithField("id", short,
					"Multiple appointments match",
					"Use more characters of the ID")
			}
			match = a
		}
	}
	if match == nil {
		return nil, errors.ErrAppointmentNotFound
	}
	return match.Clone(), nil
}

// Create validates the title, assigns a fresh unique ID, appends the
// appointment, persists the full snapshot, and schedules its alerts.
// A blank title blocks the save and leaves the collection untouched.
func (b *Book) Create(ctx context.Context, title string, date time.Time) (*SaveResult, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}
	if err := validate.Title(title); err != nil {
		return nil, err
	}
	if err := validate.Date(date); err != nil {
		return nil, err
	}

	appt := model.NewAppointment(title, date, b.clk.Now())
	b.appts = append(b.appts, appt)

	result := &SaveResult{Appointment: appt.Clone()}
	b.persist(result)
	b.schedule(ctx, appt, result)

	logging.Info("appointment created",
		logging.KeyAppointmentID, appt.ID,
		logging.KeyCount, len(b.appts))

	return result, nil
}

// Edit replaces the title and date of an existing appointment, preserving
// its ID, then persists and re-plans. Previously recorded alerts for the
// appointment are cancelled best-effort before the new plan is scheduled.
func (b *Book) Edit(ctx context.Context, id, title string, date time.Time) (*SaveResult, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}
	if err := validate.Title(title); err != nil {
		return nil, err
	}
	if err := validate.Date(date); err != nil {
		return nil, err
	}

	var appt *model.Appointment
	for _, a := range b.appts {
		if a.ID == id {
			appt = a
			break
		}
	}
	if appt == nil {
		return nil, errors.ErrAppointmentNotFound
	}

	result := &SaveResult{}
	b.cancelAlerts(ctx, id, result)

	appt.Title = title
	appt.Date = date
	result.Appointment = appt.Clone()

	b.persist(result)
	b.schedule(ctx, appt, result)

	logging.Info("appointment edited", logging.KeyAppointmentID, id)

	return result, nil
}

// Delete removes the appointment with the given ID and cancels its recorded
// alerts. Deleting an unknown ID is a no-op, not an error.
func (b *Book) Delete(ctx context.Context, id string) (*SaveResult, error) {
	if err := b.ensureLoaded(); err != nil {
		return nil, err
	}

	idx := -1
	for i, a := range b.appts {
		if a.ID == id {
			idx = i
			break
		}
	}

	result := &SaveResult{}
	if idx < 0 {
		return result, nil
	}

	b.cancelAlerts(ctx, id, result)
	b.appts = append(b.appts[:idx], b.appts[idx+1:]...)
	b.persist(result)

	logging.Info("appointment deleted",
		logging.KeyAppointmentID, id,
		logging.KeyCount, len(b.appts))

	return result, nil
}

// Count returns the number of appointments.
func (b *Book) Count() (int, error) {
	if err := b.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(b.appts), nil
}

func (b *Book) ensureLoaded() error {
	if b.loaded {
		return nil
	}
	return b.Load()
}

// persist rewrites the full snapshot. A failed write is surfaced as a
// retryable warning; the in-memory mutation stands.
func (b *Book) persist(result *SaveResult) {
	if err := b.repo.SaveAll(b.appts); err != nil {
		logging.Error("snapshot save failed", logging.KeyError, err)
		result.Warnings = append(result.Warnings,
			"Could not save appointments to storage; changes may be lost after restart. "+err.Error())
	}
}

// schedule computes the alert plan and requests each alert from the port.
// Port failures are collected as warnings; the appointment stays saved.
func (b *Book) schedule(ctx context.Context, appt *model.Appointment, result *SaveResult) {
	p := b.planner.Compute(appt, b.clk.Now())
	result.Notice = p.Notice

	if len(p.Requests) > 0 {
		ok, err := b.port.RequestPermission(ctx)
		if err != nil {
			logging.Warn("delivery permission check failed", logging.KeyError, err)
		} else if !ok {
			result.Warnings = append(result.Warnings,
				"No delivery channels configured; alerts will not be delivered. Add one with: carebook channel add")
		}
	}

	for _, req := range p.Requests {
		handle, err := b.port.Schedule(ctx, appt.ID, req)
		if err != nil {
			logging.Warn("alert scheduling failed",
				logging.KeyAppointmentID, appt.ID,
				logging.KeyAlertKind, string(req.Kind),
				logging.KeyError, err)
			result.Warnings = append(result.Warnings,
				"Could not schedule "+string(req.Kind)+" alert: "+err.Error())
			continue
		}
		result.Handles = append(result.Handles, handle)
	}
}

// cancelAlerts cancels every alert recorded for the appointment. Cancellation
// is best-effort: the observed companion app left stale alerts outstanding,
// and a failed cancel here degrades to that behavior with a warning.
func (b *Book) cancelAlerts(ctx context.Context, id string, result *SaveResult) {
	recorded, err := b.alerts.ListByAppointment(id)
	if err != nil {
		result.Warnings = append(result.Warnings,
			"Could not look up scheduled alerts for cancellation: "+err.Error())
		return
	}

	for _, a := range recorded {
		if a.Delivered {
			continue
		}
		if err := b.port.Cancel(ctx, a.Handle); err != nil {
			logging.Warn("alert cancellation failed",
				logging.KeyAppointmentID, id,
				logging.KeyAlertHandle, string(a.Handle),
				logging.KeyError, err)
			result.Warnings = append(result.Warnings,
				"A previously scheduled alert could not be cancelled and may still fire.")
		}
	}
}
