package mail

import (
	"testing"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	tpl := "Hi {{name}}, thanks for joining {{campaign_title}}!"
	out := Substitute(tpl, map[string]string{
		"name":           "Ada",
		"campaign_title": "Product Launch",
	})
	assert.Equal(t, "Hi Ada, thanks for joining Product Launch!", out)
}

func TestSubstituteLeavesUnknownPlaceholdersVisible(t *testing.T) {
	out := Substitute("Hi {{name}}, code: {{promo_code}}", map[string]string{"name": "Ada"})
	assert.Equal(t, "Hi Ada, code: {{promo_code}}", out)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "Explicit", FallbackName(map[string]string{"name": "Ada"}, "Explicit"))
	assert.Equal(t, "Ada Lovelace", FallbackName(map[string]string{
		"name": "Ada", "last_name": "Lovelace",
	}, ""))
	assert.Equal(t, "Ada Lovelace", FallbackName(map[string]string{
		"first_name": "Ada", "last_name": "Lovelace",
	}, ""))
	assert.Equal(t, "Ada", FallbackName(map[string]string{"first_name": "Ada"}, ""))
	assert.Equal(t, "User", FallbackName(map[string]string{}, ""))
	assert.Equal(t, "User", FallbackName(map[string]string{"name": "   "}, ""))
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "hello@example.com", extractAddress(`"Campaign Hub" <hello@example.com>`))
	assert.Equal(t, "hello@example.com", extractAddress("hello@example.com"))
	assert.Equal(t, "no-reply@example.com", extractAddress("Hub <no-reply@example.com>"))
}

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(appconfig.MailConfig{Enable: false})
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Send(Message{To: []string{"a@example.com"}}))
}
