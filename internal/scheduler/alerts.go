package scheduler

import (
	"context"
	"time"

	"github.com/jmhodges/clock"

	"carebook/internal/logging"
	"carebook/internal/model"
	"carebook/internal/notify"
	"carebook/internal/storage"
)

// AlertChecker finds due pending alerts and delivers them through the
// dispatcher. Alerts scheduled with a past fire time are delivered on the
// first tick after they were recorded (immediate-fire semantics).
type AlertChecker struct {
	alerts     *storage.AlertRepo
	dispatcher *notify.Dispatcher
	clk        clock.Clock
}

// NewAlertChecker creates a new alert checker.
func NewAlertChecker(alerts *storage.AlertRepo, dispatcher *notify.Dispatcher, clk clock.Clock) *AlertChecker {
	if clk == nil {
		clk = clock.New()
	}
	return &AlertChecker{
		alerts:     alerts,
		dispatcher: dispatcher,
		clk:        clk,
	}
}

// Check delivers every due alert once.
func (c *AlertChecker) Check() {
	now := c.clk.Now()

	due, err := c.alerts.ListDue(now)
	if err != nil {
		logging.Warn("failed to list due alerts", logging.KeyError, err)
		return
	}

	if len(due) == 0 {
		return
	}

	logging.DebugLog("delivering due alerts", logging.KeyCount, len(due))

	for _, alert := range due {
		c.deliver(alert, now)
	}
}

// deliver sends one alert and marks it delivered. The delivered mark is
// written even when every channel send failed: a failed delivery should not
// repeat every minute forever, it is logged and the channel's last error is
// recorded for `channel list`.
func (c *AlertChecker) deliver(alert *model.PendingAlert, now time.Time) {
	n := c.buildNotification(alert)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results := c.dispatcher.SendNotification(ctx, n)
	for _, result := range results {
		if result.Success {
			logging.Info("alert delivered",
				logging.KeyAlertHandle, string(alert.Handle),
				logging.KeyChannel, result.ChannelName,
				logging.KeyDuration, result.Duration.Milliseconds())
		} else {
			logging.Warn("alert delivery failed",
				logging.KeyAlertHandle, string(alert.Handle),
				logging.KeyChannel, result.ChannelName,
				logging.KeyError, result.Error)
		}
	}
	if len(results) == 0 {
		logging.Warn("alert dropped, no delivery channels",
			logging.KeyAlertHandle, string(alert.Handle))
	}

	if err := c.alerts.MarkDelivered(alert.Handle, now); err != nil {
		logging.Warn("failed to mark alert delivered",
			logging.KeyAlertHandle, string(alert.Handle),
			logging.KeyError, err)
	}
}

// buildNotification converts a pending alert into a channel notification.
func (c *AlertChecker) buildNotification(alert *model.PendingAlert) *model.Notification {
	t := model.NotifyAppointment
	if alert.Kind == model.AlertReminder {
		t = model.NotifyReminder
	}

	n := model.NewNotification(t, alert.Title, alert.Body)
	n.WithField("Scheduled for", alert.FireAt.Format("2006-01-02 15:04"))
	n.WithField("Alert", alert.ShortHandle())

	return n
}
