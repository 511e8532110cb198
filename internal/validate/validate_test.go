package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carebook/internal/errors"
)

func TestTitle(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Title("Dentist appointment"))
		assert.NoError(t, Title("a"))
	})

	t.Run("blank", func(t *testing.T) {
		for _, title := range []string{"", " ", "\t", "\n  \n"} {
			err := Title(title)
			assert.Error(t, err)
			assert.True(t, errors.IsUserError(err))
		}
	})

	t.Run("blank_message_matches_ui", func(t *testing.T) {
		err := Title("")
		ue, ok := errors.AsUserError(err)
		assert.True(t, ok)
		assert.Equal(t, "Please enter a title for the appointment", ue.Message)
	})

	t.Run("too_long", func(t *testing.T) {
		err := Title(strings.Repeat("x", MaxTitleLength+1))
		assert.Error(t, err)
	})

	t.Run("max_length_ok", func(t *testing.T) {
		assert.NoError(t, Title(strings.Repeat("x", MaxTitleLength)))
	})
}

func TestDate(t *testing.T) {
	assert.NoError(t, Date(time.Now()))
	assert.Error(t, Date(time.Time{}))

	// Past dates pass validation; the planner handles them
	assert.NoError(t, Date(time.Now().Add(-time.Hour)))
}

func TestChannelName(t *testing.T) {
	assert.NoError(t, ChannelName("phone"))
	assert.Error(t, ChannelName(""))
	assert.Error(t, ChannelName(strings.Repeat("x", MaxChannelNameLength+1)))
}

func TestChannelURL(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ChannelURL("https://discord.com/api/webhooks/1/x"))
		assert.NoError(t, ChannelURL("http://localhost:8080/hook"))
	})

	t.Run("invalid", func(t *testing.T) {
		for _, url := range []string{"", "not-a-url", "ftp://example.com/x", "https://"} {
			assert.Error(t, ChannelURL(url), url)
		}
	})
}
