// Package notify provides the notification port and webhook delivery for
// Carebook alerts.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carebook/internal/errors"
	"carebook/internal/logging"
	"carebook/internal/model"
	"carebook/internal/plan"
	"carebook/internal/storage"
)

// Port is the notification-scheduling interface the appointment store
// depends on. Implementations accept requests for arbitrary future
// timestamps; behavior for past timestamps is implementation-defined and
// must not make the caller crash.
type Port interface {
	// RequestPermission reports whether alerts can actually be delivered.
	// A false result is a warning, not an error: the port still accepts
	// schedule requests and may silently drop them.
	RequestPermission(ctx context.Context) (bool, error)

	// Schedule arranges delivery of one alert and returns an opaque handle
	// for later cancellation.
	Schedule(ctx context.Context, appointmentID string, req plan.AlertRequest) (model.AlertHandle, error)

	// Cancel removes a previously scheduled alert by handle. Cancelling an
	// unknown handle is not an error.
	Cancel(ctx context.Context, handle model.AlertHandle) error

	// OnAcknowledge registers a single process-wide callback invoked when
	// the user acknowledges a delivered alert.
	OnAcknowledge(handler func(model.AlertHandle))
}

// QueuePort is the production Port: each schedule request becomes a durable
// PendingAlert record that the daemon delivers when its fire time arrives.
// Past-dated requests are accepted and fire on the next delivery tick.
type QueuePort struct {
	alerts   *storage.AlertRepo
	channels *storage.ChannelRepo
	ack      func(model.AlertHandle)
	clock    func() time.Time
}

// NewQueuePort creates a queue-backed notification port.
func NewQueuePort(alerts *storage.AlertRepo, channels *storage.ChannelRepo) *QueuePort {
	return &QueuePort{
		alerts:   alerts,
		channels: channels,
		clock:    time.Now,
	}
}

// WithClock overrides the port's clock, used by tests.
func (p *QueuePort) WithClock(clock func() time.Time) *QueuePort {
	p.clock = clock
	return p
}

// RequestPermission reports whether at least one enabled delivery channel
// exists. Without channels the daemon has nowhere to deliver, mirroring a
// denied notification permission.
func (p *QueuePort) RequestPermission(ctx context.Context) (bool, error) {
	channels, err := p.channels.ListEnabled()
	if err != nil {
		return false, errors.Wrap(err, "failed to list channels")
	}
	return len(channels) > 0, nil
}

// Schedule persists a pending alert record and returns its handle.
func (p *QueuePort) Schedule(ctx context.Context, appointmentID string, req plan.AlertRequest) (model.AlertHandle, error) {
	handle := model.AlertHandle(uuid.New().String())

	alert := &model.PendingAlert{
		Key:           model.GenerateAlertKey(handle),
		Handle:        handle,
		AppointmentID: appointmentID,
		Kind:          req.Kind,
		FireAt:        req.FireAt,
		Title:         req.Title,
		Body:          req.Body,
		CreatedAt:     p.clock(),
	}

	if err := p.alerts.Create(alert); err != nil {
		return "", errors.NewSchedulingError(appointmentID, "failed to schedule alert", err)
	}

	logging.DebugLog("alert scheduled",
		logging.KeyAppointmentID, appointmentID,
		logging.KeyAlertHandle, string(handle),
		logging.KeyAlertKind, string(req.Kind),
		logging.KeyFireAt, req.FireAt)

	return handle, nil
}

// Cancel deletes the pending alert record for the handle.
func (p *QueuePort) Cancel(ctx context.Context, handle model.AlertHandle) error {
	exists, err := p.alerts.Exists(handle)
	if err != nil {
		return errors.Wrap(err, "failed to look up alert")
	}
	if !exists {
		return nil
	}
	if err := p.alerts.Delete(handle); err != nil {
		return errors.Wrap(err, "failed to cancel alert")
	}

	logging.DebugLog("alert cancelled", logging.KeyAlertHandle, string(handle))
	return nil
}

// OnAcknowledge registers the acknowledgment handler.
func (p *QueuePort) OnAcknowledge(handler func(model.AlertHandle)) {
	p.ack = handler
}

// Acknowledge marks a delivered alert acknowledged and invokes the
// registered handler. The store uses the callback only for an informational
// message, never to drive state transitions.
func (p *QueuePort) Acknowledge(handle model.AlertHandle) (*model.PendingAlert, error) {
	alert, err := p.alerts.MarkAcknowledged(handle)
	if err != nil {
		if storage.IsErrKeyNotFound(err) {
			return nil, errors.ErrAlertNotFound
		}
		return nil, err
	}
	if p.ack != nil {
		p.ack(handle)
	}
	return alert, nil
}
