package slack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	assert.Contains(t, TranslateError("missing_scope", "#ops"), "chat:write")
	assert.Contains(t, TranslateError("not_in_channel", "#ops"), "/invite")
	assert.Contains(t, TranslateError("invalid_auth", "#ops"), "slack.bot_token")
	assert.Contains(t, TranslateError("channel_not_found", "#ops"), "#ops")
	assert.Contains(t, TranslateError("ratelimited", "#ops"), "ratelimited")
}

func TestFormatFormDataOrdersAndLabels(t *testing.T) {
	out := formatFormData(map[string]string{
		"work_email": "ada@example.com",
		"name":       "Ada",
		"campaignId": "camp_launch", // metadata, not shown
		"formType":   "simple",      // metadata, not shown
	})

	assert.NotContains(t, out, "camp_launch")
	assert.NotContains(t, out, "simple")
	assert.Contains(t, out, "*Name:* Ada")
	assert.Contains(t, out, "*Work Email:* ada@example.com")

	// Stable ordering regardless of map iteration.
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "*Name:*"))
}

func TestEnabled(t *testing.T) {
	assert.False(t, New("", "#ops").Enabled())
	assert.True(t, New("xoxb-token", "#ops").Enabled())
}
