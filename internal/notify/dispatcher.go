package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carebook/internal/model"
	"carebook/internal/storage"
)

// Dispatcher sends notifications to all enabled channels.
type Dispatcher struct {
	channelRepo *storage.ChannelRepo
	httpClient  *HTTPClient
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(channelRepo *storage.ChannelRepo) *Dispatcher {
	return &Dispatcher{
		channelRepo: channelRepo,
		httpClient:  NewHTTPClient(),
	}
}

// DispatchResult contains the result of dispatching to a single channel.
type DispatchResult struct {
	ChannelName string
	Success     bool
	StatusCode  int
	Duration    time.Duration
	Error       error
}

// SendNotification sends a notification to all enabled channels.
func (d *Dispatcher) SendNotification(ctx context.Context, n *model.Notification) []DispatchResult {
	channels, err := d.channelRepo.ListEnabled()
	if err != nil {
		return []DispatchResult{{
			ChannelName: "all",
			Success:     false,
			Error:       fmt.Errorf("failed to list channels: %w", err),
		}}
	}

	if len(channels) == 0 {
		return nil // No channels configured
	}

	// Send to all channels concurrently
	var wg sync.WaitGroup
	results := make([]DispatchResult, len(channels))

	for i, ch := range channels {
		wg.Add(1)
		go func(idx int, ch *model.Channel) {
			defer wg.Done()
			results[idx] = d.sendToChannel(ctx, n, ch)
		}(i, ch)
	}

	wg.Wait()
	return results
}

// sendToChannel sends a notification to a single channel.
func (d *Dispatcher) sendToChannel(ctx context.Context, n *model.Notification, ch *model.Channel) DispatchResult {
	result := DispatchResult{
		ChannelName: ch.Name,
	}

	var formatter Formatter
	if ch.Type == model.ChannelTypeGeneric && ch.Template != "" {
		formatter = NewGenericFormatter(ch.Template)
	} else {
		formatter = GetFormatter(ch.Type)
	}

	payload, err := formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		d.updateChannelStatus(ch.Name, result.Error)
		return result
	}

	sendResult := d.httpClient.Send(ctx, ch.URL, formatter.ContentType(), payload)

	result.StatusCode = sendResult.StatusCode
	result.Duration = sendResult.Duration
	result.Error = sendResult.Error
	result.Success = sendResult.Error == nil

	d.updateChannelStatus(ch.Name, sendResult.Error)

	return result
}

// updateChannelStatus updates the last used timestamp and error for a channel.
func (d *Dispatcher) updateChannelStatus(name string, err error) {
	// Status bookkeeping failures are not critical
	_ = d.channelRepo.UpdateLastUsed(name, err)
}

// SendToSingle sends a notification to a single channel by name.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, channelName string) DispatchResult {
	ch, err := d.channelRepo.Get(channelName)
	if err != nil {
		return DispatchResult{
			ChannelName: channelName,
			Success:     false,
			Error:       fmt.Errorf("channel not found: %w", err),
		}
	}

	return d.sendToChannel(ctx, n, ch)
}

// TestChannel sends a test notification to a specific channel.
func (d *Dispatcher) TestChannel(ctx context.Context, channelName string) DispatchResult {
	testNotification := model.NewNotification(
		model.NotifyTest,
		"Carebook Test",
		"This is a test notification from Carebook. If you see this, your channel is configured correctly!",
	).WithField("Channel", channelName).WithField("Time", time.Now().Format("15:04"))

	return d.SendToSingle(ctx, testNotification, channelName)
}

// HasEnabledChannels returns true if there are any enabled channels.
func (d *Dispatcher) HasEnabledChannels() bool {
	channels, err := d.channelRepo.ListEnabled()
	if err != nil {
		return false
	}
	return len(channels) > 0
}
