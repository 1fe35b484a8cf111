package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort        = 3000
	defaultEnv         = "development"
	defaultAppURL      = "http://localhost:3000"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBName      = "campaign_hub"
	defaultDBCharset   = "utf8mb4"
	defaultDBLoc       = "Local"
	defaultRedisHost   = "localhost"
	defaultRedisPort   = 6379
	defaultCMSEnv      = "production"
	defaultCMSCDNBase  = "https://cdn.contentstack.io"
	defaultCMSAPIBase  = "https://api.contentstack.io"
	defaultSMTPPort    = 587
	defaultSlackChanID = ""
)

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRaw(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:   defaultPort,
		Env:    defaultEnv,
		AppURL: defaultAppURL,
		Database: DatabaseConfig{
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
			Loc:     defaultDBLoc,
		},
		Redis: RedisConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		CMS: CMSConfig{
			Environment: defaultCMSEnv,
			CDNBase:     defaultCMSCDNBase,
			APIBase:     defaultCMSAPIBase,
		},
		Mail: MailConfig{
			Port: defaultSMTPPort,
		},
	}
}

func applyRaw(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port > 0 {
		cfg.Port = raw.Port
	}
	cfg.Env = firstNonEmpty(raw.Env, raw.NodeEnv, cfg.Env)
	cfg.AppURL = strings.TrimRight(firstNonEmpty(raw.AppURL, raw.BaseURL, cfg.AppURL), "/")
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.AllowedOrigins
	} else if len(raw.CORSOrigins) > 0 {
		cfg.AllowedOrigins = raw.CORSOrigins
	}
	cfg.OperatorToken = firstNonEmpty(raw.OperatorToken, raw.AdminToken)
	cfg.Timezone = firstNonEmpty(raw.Timezone, raw.TZ)

	applyRawDatabase(&cfg.Database, raw)
	applyRawRedis(&cfg.Redis, raw)
	applyRawCMS(&cfg.CMS, raw.CMS)
	applyRawCMS(&cfg.CMS, raw.Contentstack)
	applyRawMail(&cfg.Mail, raw.Mail)
	applyRawMail(&cfg.Mail, raw.SMTP)
	applyRawSlack(&cfg.Slack, raw.Slack)
	applyRawPush(&cfg.Push, raw.Push)
	applyRawPush(&cfg.Push, raw.Firebase)
}

func applyRawDatabase(dst *DatabaseConfig, raw rawAppConfig) {
	db := raw.Database
	dst.DSN = firstNonEmpty(db.DSN, raw.DSN, dst.DSN)
	dst.Host = firstNonEmpty(db.Host, dst.Host)
	if db.Port > 0 {
		dst.Port = db.Port
	}
	dst.User = firstNonEmpty(db.User, db.Username, dst.User)
	dst.Password = firstNonEmpty(db.Password, dst.Password)
	dst.Name = firstNonEmpty(db.Name, db.DBName, dst.Name)
	dst.Charset = firstNonEmpty(db.Charset, dst.Charset)
	dst.Loc = firstNonEmpty(db.Loc, dst.Loc)
}

func applyRawRedis(dst *RedisConfig, raw rawAppConfig) {
	r := raw.Redis
	dst.URL = firstNonEmpty(r.URL, raw.RedisURL, dst.URL)
	dst.Host = firstNonEmpty(r.Host, dst.Host)
	if r.Port > 0 {
		dst.Port = r.Port
	}
	dst.Username = firstNonEmpty(r.Username, dst.Username)
	dst.Password = firstNonEmpty(r.Password, dst.Password)
	if r.DB != nil {
		dst.DB = *r.DB
	}
}

func applyRawCMS(dst *CMSConfig, raw rawCMSConfig) {
	dst.APIKey = firstNonEmpty(raw.APIKey, dst.APIKey)
	dst.DeliveryToken = firstNonEmpty(raw.DeliveryToken, raw.AccessToken, dst.DeliveryToken)
	dst.ManagementToken = firstNonEmpty(raw.ManagementToken, dst.ManagementToken)
	dst.Environment = firstNonEmpty(raw.Environment, dst.Environment)
	dst.CDNBase = strings.TrimRight(firstNonEmpty(raw.CDNBase, dst.CDNBase), "/")
	dst.APIBase = strings.TrimRight(firstNonEmpty(raw.APIBase, dst.APIBase), "/")
}

func applyRawMail(dst *MailConfig, raw rawMailConfig) {
	if raw.Enable != nil {
		dst.Enable = *raw.Enable
	}
	dst.Host = firstNonEmpty(raw.Host, dst.Host)
	if raw.Port > 0 {
		dst.Port = raw.Port
	}
	dst.User = firstNonEmpty(raw.User, raw.Username, dst.User)
	dst.Pass = firstNonEmpty(raw.Pass, raw.Password, dst.Pass)
	dst.From = firstNonEmpty(raw.From, dst.From)
	dst.ReplyTo = firstNonEmpty(raw.ReplyTo, dst.ReplyTo)
	if raw.UseResend != nil {
		dst.UseResend = *raw.UseResend
	}
	dst.ResendKey = firstNonEmpty(raw.ResendKey, dst.ResendKey)
}

func applyRawSlack(dst *SlackConfig, raw rawSlackConfig) {
	if raw.Enable != nil {
		dst.Enable = *raw.Enable
	}
	dst.BotToken = firstNonEmpty(raw.BotToken, raw.Token, dst.BotToken)
	dst.Channel = firstNonEmpty(raw.Channel, raw.ChannelID, dst.Channel)
}

func applyRawPush(dst *PushConfig, raw rawPushConfig) {
	if raw.Enable != nil {
		dst.Enable = *raw.Enable
	}
	dst.ProjectID = firstNonEmpty(raw.ProjectID, dst.ProjectID)
	dst.CredentialsFile = firstNonEmpty(raw.CredentialsFile, dst.CredentialsFile)
	dst.CredentialsJSON = firstNonEmpty(raw.CredentialsJSON, raw.ServiceAccount, dst.CredentialsJSON)
	dst.VAPIDPublicKey = firstNonEmpty(raw.VAPIDPublicKey, raw.VAPIDKey, dst.VAPIDPublicKey)
}

// Validate checks that every enabled integration has the settings it needs.
// Error messages name the exact config key so operators can fix one thing at
// a time.
func (c *AppConfig) Validate() error {
	if c.CMS.APIKey == "" {
		return fmt.Errorf("cms.api_key is required")
	}
	if c.CMS.DeliveryToken == "" {
		return fmt.Errorf("cms.delivery_token is required")
	}
	if c.CMS.ManagementToken == "" {
		return fmt.Errorf("cms.management_token is required (form submissions are written through the management API)")
	}
	if c.Mail.Enable {
		if c.Mail.UseResend {
			if c.Mail.ResendKey == "" {
				return fmt.Errorf("mail.resend_key is required when mail.use_resend is true")
			}
		} else {
			for key, val := range map[string]string{
				"mail.host": c.Mail.Host,
				"mail.user": c.Mail.User,
				"mail.pass": c.Mail.Pass,
			} {
				if val == "" {
					return fmt.Errorf("%s is required when mail.enable is true", key)
				}
			}
		}
	}
	if c.Slack.Enable {
		if c.Slack.BotToken == "" {
			return fmt.Errorf("slack.bot_token is required when slack.enable is true")
		}
		if c.Slack.Channel == "" {
			return fmt.Errorf("slack.channel is required when slack.enable is true")
		}
	}
	if c.Push.Enable {
		if c.Push.ProjectID == "" {
			return fmt.Errorf("push.project_id is required when push.enable is true")
		}
		if c.Push.CredentialsFile == "" && c.Push.CredentialsJSON == "" {
			return fmt.Errorf("push.credentials_file or push.credentials_json is required when push.enable is true")
		}
		if c.Push.VAPIDPublicKey == "" {
			return fmt.Errorf("push.vapid_public_key is required when push.enable is true (browsers cannot exchange a permission grant for a device token without it)")
		}
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development") || strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
