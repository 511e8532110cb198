package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook/internal/model"
	"carebook/internal/plan"
	"carebook/internal/storage"
)

func setupTestDB(t *testing.T) *storage.DB {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestGetFormatter(t *testing.T) {
	tests := []struct {
		channelType string
		expected    string
	}{
		{model.ChannelTypeDiscord, "*notify.DiscordFormatter"},
		{model.ChannelTypeSlack, "*notify.SlackFormatter"},
		{model.ChannelTypeGeneric, "*notify.GenericFormatter"},
		{"unknown", "*notify.GenericFormatter"},
		{"", "*notify.GenericFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.channelType, func(t *testing.T) {
			formatter := GetFormatter(tt.channelType)
			assert.NotNil(t, formatter)
			assert.Equal(t, tt.expected, fmt.Sprintf("%T", formatter))
		})
	}
}

func TestDiscordFormatter(t *testing.T) {
	f := &DiscordFormatter{}
	n := model.NewNotification(model.NotifyReminder, "Appointment Reminder",
		`You have an appointment: "Dentist" at 14:00`).
		WithField("Scheduled for", "2026-09-15 13:55")

	payload, err := f.Format(n)
	require.NoError(t, err)
	assert.Equal(t, "application/json", f.ContentType())

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &parsed))

	embeds, ok := parsed["embeds"].([]interface{})
	require.True(t, ok)
	require.Len(t, embeds, 1)

	embed := embeds[0].(map[string]interface{})
	assert.Equal(t, "Appointment Reminder", embed["title"])
	assert.Contains(t, embed["description"], "Dentist")
	assert.Equal(t, float64(model.ColorWarning), embed["color"])

	footer := embed["footer"].(map[string]interface{})
	assert.Equal(t, "Carebook", footer["text"])
}

func TestSlackFormatter(t *testing.T) {
	f := &SlackFormatter{}
	n := model.NewNotification(model.NotifyAppointment, "Your Appointment",
		`Your appointment "Dentist" is happening now.`).
		WithField("Alert", "abc123")

	payload, err := f.Format(n)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &parsed))

	blocks, ok := parsed["blocks"].([]interface{})
	require.True(t, ok)
	require.GreaterOrEqual(t, len(blocks), 2)

	header := blocks[0].(map[string]interface{})
	assert.Equal(t, "header", header["type"])

	attachments := parsed["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	color := attachments[0].(map[string]interface{})["color"].(string)
	assert.Equal(t, "#2260FF", color)
}

func TestGenericFormatterDefault(t *testing.T) {
	f := &GenericFormatter{}
	n := model.NewNotification(model.NotifyTest, "Carebook Test", "hello")

	payload, err := f.Format(n)
	require.NoError(t, err)

	var parsed genericPayload
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, "test", parsed.Type)
	assert.Equal(t, "Carebook Test", parsed.Title)
	assert.Equal(t, "hello", parsed.Message)
}

func TestGenericFormatterTemplate(t *testing.T) {
	f := NewGenericFormatter(`{"text": "{{.Title}}: {{.Message}}"}`)
	n := model.NewNotification(model.NotifyTest, "Title", "Body")

	payload, err := f.Format(n)
	require.NoError(t, err)
	assert.Equal(t, `{"text": "Title: Body"}`, string(payload))
}

// =============================================================================
// QueuePort Tests
// =============================================================================

func setupPort(t *testing.T) (*QueuePort, *storage.AlertRepo, *storage.ChannelRepo) {
	db := setupTestDB(t)
	alerts := storage.NewAlertRepo(db)
	channels := storage.NewChannelRepo(db)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	port := NewQueuePort(alerts, channels).WithClock(func() time.Time { return now })
	return port, alerts, channels
}

func TestQueuePortSchedule(t *testing.T) {
	port, alerts, _ := setupPort(t)
	ctx := context.Background()

	fireAt := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	handle, err := port.Schedule(ctx, "appt-1", plan.AlertRequest{
		Kind:   model.AlertReminder,
		FireAt: fireAt,
		Title:  "Appointment Reminder",
		Body:   "body",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	alert, err := alerts.Get(handle)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", alert.AppointmentID)
	assert.Equal(t, model.AlertReminder, alert.Kind)
	assert.True(t, alert.FireAt.Equal(fireAt))
	assert.False(t, alert.Delivered)
}

func TestQueuePortSchedulePastFireTime(t *testing.T) {
	port, alerts, _ := setupPort(t)
	ctx := context.Background()

	// Past-dated requests are accepted, not rejected
	past := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	handle, err := port.Schedule(ctx, "appt-1", plan.AlertRequest{
		Kind:   model.AlertAtTime,
		FireAt: past,
		Title:  "Your Appointment",
		Body:   "body",
	})
	require.NoError(t, err)

	// It is immediately due for the next delivery tick
	due, err := alerts.ListDue(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, handle, due[0].Handle)
}

func TestQueuePortCancel(t *testing.T) {
	port, alerts, _ := setupPort(t)
	ctx := context.Background()

	handle, err := port.Schedule(ctx, "appt-1", plan.AlertRequest{
		Kind:   model.AlertReminder,
		FireAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, port.Cancel(ctx, handle))

	exists, err := alerts.Exists(handle)
	require.NoError(t, err)
	assert.False(t, exists)

	// Cancelling an unknown handle is not an error
	assert.NoError(t, port.Cancel(ctx, "never-existed"))
}

func TestQueuePortRequestPermission(t *testing.T) {
	port, _, channels := setupPort(t)
	ctx := context.Background()

	ok, err := port.RequestPermission(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, channels.Create(model.NewChannel("phone", model.ChannelTypeGeneric, "https://example.com/hook")))

	ok, err = port.RequestPermission(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueuePortAcknowledge(t *testing.T) {
	port, alerts, _ := setupPort(t)
	ctx := context.Background()

	handle, err := port.Schedule(ctx, "appt-1", plan.AlertRequest{
		Kind:   model.AlertAtTime,
		FireAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, alerts.MarkDelivered(handle, time.Now()))

	var seen model.AlertHandle
	port.OnAcknowledge(func(h model.AlertHandle) { seen = h })

	acked, err := port.Acknowledge(handle)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.Equal(t, handle, seen)

	t.Run("unknown_handle", func(t *testing.T) {
		_, err := port.Acknowledge("missing")
		assert.Error(t, err)
	})
}

// =============================================================================
// Dispatcher Tests
// =============================================================================

func TestDispatcherSendNotification(t *testing.T) {
	db := setupTestDB(t)
	channels := storage.NewChannelRepo(db)

	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = make([]byte, r.ContentLength)
		r.Body.Read(received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, channels.Create(model.NewChannel("test", model.ChannelTypeGeneric, server.URL)))

	dispatcher := NewDispatcher(channels)
	n := model.NewNotification(model.NotifyReminder, "Appointment Reminder", "body")

	results := dispatcher.SendNotification(context.Background(), n)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.NotEmpty(t, received)

	// Delivery bookkeeping recorded on the channel
	ch, err := channels.Get("test")
	require.NoError(t, err)
	assert.False(t, ch.LastUsed.IsZero())
	assert.Empty(t, ch.LastError)
}

func TestDispatcherNoChannels(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewDispatcher(storage.NewChannelRepo(db))

	n := model.NewNotification(model.NotifyReminder, "Title", "body")
	results := dispatcher.SendNotification(context.Background(), n)
	assert.Empty(t, results)
}

func TestDispatcherSkipsDisabledChannels(t *testing.T) {
	db := setupTestDB(t)
	channels := storage.NewChannelRepo(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, channels.Create(model.NewChannel("on", model.ChannelTypeGeneric, server.URL)))
	require.NoError(t, channels.Create(model.NewChannel("off", model.ChannelTypeGeneric, server.URL)))
	require.NoError(t, channels.SetEnabled("off", false))

	dispatcher := NewDispatcher(channels)
	results := dispatcher.SendNotification(context.Background(),
		model.NewNotification(model.NotifyTest, "t", "m"))

	require.Len(t, results, 1)
	assert.Equal(t, "on", results[0].ChannelName)
}

func TestDispatcherRecordsFailure(t *testing.T) {
	db := setupTestDB(t)
	channels := storage.NewChannelRepo(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	require.NoError(t, channels.Create(model.NewChannel("broken", model.ChannelTypeGeneric, server.URL)))

	dispatcher := NewDispatcher(channels)
	results := dispatcher.SendNotification(context.Background(),
		model.NewNotification(model.NotifyTest, "t", "m"))

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)

	ch, err := channels.Get("broken")
	require.NoError(t, err)
	assert.NotEmpty(t, ch.LastError)
}

func TestDispatcherTestChannel(t *testing.T) {
	db := setupTestDB(t)
	channels := storage.NewChannelRepo(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, channels.Create(model.NewChannel("test", model.ChannelTypeDiscord, server.URL)))

	dispatcher := NewDispatcher(channels)
	result := dispatcher.TestChannel(context.Background(), "test")
	assert.True(t, result.Success)

	missing := dispatcher.TestChannel(context.Background(), "nope")
	assert.False(t, missing.Success)
	assert.Error(t, missing.Error)
}
