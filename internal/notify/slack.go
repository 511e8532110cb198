package notify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"carebook/internal/model"
)

// SlackFormatter formats notifications for Slack webhooks.
type SlackFormatter struct{}

// slackPayload represents a Slack webhook payload.
type slackPayload struct {
	Text        string        `json:"text,omitempty"`
	Blocks      []slackBlock  `json:"blocks,omitempty"`
	Attachments []slackAttach `json:"attachments,omitempty"`
}

// slackBlock represents a Slack block.
type slackBlock struct {
	Type   string           `json:"type"`
	Text   *slackBlockText  `json:"text,omitempty"`
	Fields []slackBlockText `json:"fields,omitempty"`
}

// slackBlockText represents text in a Slack block.
type slackBlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// slackAttach represents a Slack attachment (for color).
type slackAttach struct {
	Color    string `json:"color,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Format converts a notification to Slack webhook format.
func (f *SlackFormatter) Format(n *model.Notification) ([]byte, error) {
	color := n.Color
	if color == 0 {
		color = model.DefaultColorForType(n.Type)
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackBlockText{
				Type: "plain_text",
				Text: n.Title,
			},
		},
		{
			Type: "section",
			Text: &slackBlockText{
				Type: "mrkdwn",
				Text: n.Message,
			},
		},
	}

	if len(n.Fields) > 0 {
		var fields []slackBlockText
		keys := make([]string, 0, len(n.Fields))
		for key := range n.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fields = append(fields, slackBlockText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%s:* %s", key, n.Fields[key]),
			})
		}
		blocks = append(blocks, slackBlock{
			Type:   "section",
			Fields: fields,
		})
	}

	payload := slackPayload{
		Blocks: blocks,
		Attachments: []slackAttach{
			{
				Color:    fmt.Sprintf("#%06X", color),
				Fallback: strings.TrimSpace(n.Title + " " + n.Message),
			},
		},
	}

	return json.Marshal(payload)
}

// ContentType returns the content type for Slack webhooks.
func (f *SlackFormatter) ContentType() string {
	return "application/json"
}
