package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
cms:
  api_key: key
  delivery_token: dtoken
  management_token: mtoken
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "https://cdn.contentstack.io", cfg.CMS.CDNBase)
	assert.Equal(t, "https://api.contentstack.io", cfg.CMS.APIBase)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "campaign_hub", cfg.Database.Name)
}

func TestLoadAcceptsAliasKeys(t *testing.T) {
	path := writeConfig(t, `
node_env: production
base_url: https://hub.example.com/
admin_token: op-secret
contentstack:
  api_key: key
  access_token: dtoken
  management_token: mtoken
smtp:
  enable: true
  host: smtp.example.com
  username: mailer
  password: hunter2
firebase:
  enable: true
  project_id: hub-prod
  service_account: '{"type":"service_account"}'
  vapid_key: BIgn123
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "https://hub.example.com", cfg.AppURL)
	assert.Equal(t, "op-secret", cfg.OperatorToken)
	assert.Equal(t, "dtoken", cfg.CMS.DeliveryToken)
	assert.Equal(t, "mailer", cfg.Mail.User)
	assert.Equal(t, "hunter2", cfg.Mail.Pass)
	assert.Equal(t, "hub-prod", cfg.Push.ProjectID)
	assert.Equal(t, `{"type":"service_account"}`, cfg.Push.CredentialsJSON)
	assert.Equal(t, "BIgn123", cfg.Push.VAPIDPublicKey)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "definitely_not_a_key: true\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, "port: 99999\ncms:\n  api_key: key\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid port")
}

func TestValidateNamesMissingKeys(t *testing.T) {
	cfg := &AppConfig{}
	assert.ErrorContains(t, cfg.Validate(), "cms.api_key")

	cfg.CMS = CMSConfig{APIKey: "k", DeliveryToken: "d"}
	assert.ErrorContains(t, cfg.Validate(), "cms.management_token")

	cfg.CMS.ManagementToken = "m"
	require.NoError(t, cfg.Validate())

	cfg.Mail = MailConfig{Enable: true, UseResend: true}
	assert.ErrorContains(t, cfg.Validate(), "mail.resend_key")

	cfg.Mail = MailConfig{Enable: true, Host: "smtp.example.com", User: "u"}
	assert.ErrorContains(t, cfg.Validate(), "mail.pass")

	cfg.Mail = MailConfig{}
	cfg.Slack = SlackConfig{Enable: true, BotToken: "t"}
	assert.ErrorContains(t, cfg.Validate(), "slack.channel")

	cfg.Slack = SlackConfig{}
	cfg.Push = PushConfig{Enable: true, ProjectID: "p", CredentialsJSON: "{}"}
	assert.ErrorContains(t, cfg.Validate(), "push.vapid_public_key")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 3306, User: "hub", Password: "pw",
		Name: "campaign_hub", Charset: "utf8mb4", Loc: "Local",
	}
	dsn := cfg.DSNValue()
	assert.Contains(t, dsn, "hub:pw@tcp(db.internal:3306)/campaign_hub")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
}
