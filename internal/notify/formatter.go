package notify

import (
	"carebook/internal/model"
)

// Formatter formats notifications for a specific channel type.
type Formatter interface {
	// Format converts a notification into the channel-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the appropriate formatter for a channel type.
func GetFormatter(channelType string) Formatter {
	switch channelType {
	case model.ChannelTypeDiscord:
		return &DiscordFormatter{}
	case model.ChannelTypeSlack:
		return &SlackFormatter{}
	case model.ChannelTypeGeneric:
		return &GenericFormatter{}
	default:
		return &GenericFormatter{}
	}
}
