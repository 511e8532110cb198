package model

import (
	"fmt"
	"strings"
	"time"
)

// Channel type constants.
const (
	ChannelTypeDiscord = "discord"
	ChannelTypeSlack   = "slack"
	ChannelTypeGeneric = "generic"
)

// Channel represents a webhook delivery channel for alerts.
type Channel struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	Template  string    `json:"template,omitempty"` // For generic channels
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// SetKey sets the database key for this channel.
func (c *Channel) SetKey(key string) {
	c.Key = key
}

// GetKey returns the database key for this channel.
func (c *Channel) GetKey() string {
	return c.Key
}

// MaskedURL returns the URL with sensitive parts masked.
func (c *Channel) MaskedURL() string {
	if len(c.URL) > 40 {
		return c.URL[:30] + "***"
	}
	return c.URL
}

// GenerateChannelKey generates a database key for a channel.
func GenerateChannelKey(name string) string {
	return fmt.Sprintf("%s:%s", PrefixChannel, name)
}

// NewChannel creates a new enabled channel.
func NewChannel(name, channelType, url string) *Channel {
	return &Channel{
		Key:       GenerateChannelKey(name),
		Name:      name,
		Type:      channelType,
		URL:       url,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

// ValidChannelTypes returns the list of valid channel types.
func ValidChannelTypes() []string {
	return []string{ChannelTypeDiscord, ChannelTypeSlack, ChannelTypeGeneric}
}

// DetectChannelType guesses the channel type from the webhook URL.
func DetectChannelType(url string) string {
	switch {
	case strings.Contains(url, "discord.com/api/webhooks"):
		return ChannelTypeDiscord
	case strings.Contains(url, "hooks.slack.com"):
		return ChannelTypeSlack
	default:
		return ChannelTypeGeneric
	}
}

// IsValidChannelType checks if a type is valid.
func IsValidChannelType(t string) bool {
	for _, valid := range ValidChannelTypes() {
		if t == valid {
			return true
		}
	}
	return false
}
