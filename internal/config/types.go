package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	AppURL         string         `yaml:"app_url"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	OperatorToken  string         `yaml:"operator_token"`
	Timezone       string         `yaml:"timezone"`
	Database       DatabaseConfig `yaml:"database"`
	Redis          RedisConfig    `yaml:"redis"`
	CMS            CMSConfig      `yaml:"cms"`
	Mail           MailConfig     `yaml:"mail"`
	Slack          SlackConfig    `yaml:"slack"`
	Push           PushConfig     `yaml:"push"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CMSConfig points at the headless content store. The delivery token reads
// published entries from the CDN host; the management token writes
// form-submission entries through the API host.
type CMSConfig struct {
	APIKey          string `yaml:"api_key"`
	DeliveryToken   string `yaml:"delivery_token"`
	ManagementToken string `yaml:"management_token"`
	Environment     string `yaml:"environment"`
	CDNBase         string `yaml:"cdn_base"`
	APIBase         string `yaml:"api_base"`
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type SlackConfig struct {
	Enable   bool   `yaml:"enable"`
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// PushConfig holds the push-delivery service account and the public VAPID key
// handed to browsers during token acquisition.
type PushConfig struct {
	Enable          bool   `yaml:"enable"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
}

// rawAppConfig tolerates the alias keys operators tend to use.
type rawAppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	NodeEnv        string            `yaml:"node_env"`
	AppURL         string            `yaml:"app_url"`
	BaseURL        string            `yaml:"base_url"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	CORSOrigins    []string          `yaml:"cors_allowed_origins"`
	OperatorToken  string            `yaml:"operator_token"`
	AdminToken     string            `yaml:"admin_token"`
	Timezone       string            `yaml:"timezone"`
	TZ             string            `yaml:"tz"`
	DSN            string            `yaml:"dsn"`
	Database       rawDatabaseConfig `yaml:"database"`
	RedisURL       string            `yaml:"redis_url"`
	Redis          rawRedisConfig    `yaml:"redis"`
	CMS            rawCMSConfig      `yaml:"cms"`
	Contentstack   rawCMSConfig      `yaml:"contentstack"`
	Mail           rawMailConfig     `yaml:"mail"`
	SMTP           rawMailConfig     `yaml:"smtp"`
	Slack          rawSlackConfig    `yaml:"slack"`
	Push           rawPushConfig     `yaml:"push"`
	Firebase       rawPushConfig     `yaml:"firebase"`
}

type rawDatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	DBName   string `yaml:"db_name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
}

type rawCMSConfig struct {
	APIKey          string `yaml:"api_key"`
	DeliveryToken   string `yaml:"delivery_token"`
	AccessToken     string `yaml:"access_token"`
	ManagementToken string `yaml:"management_token"`
	Environment     string `yaml:"environment"`
	CDNBase         string `yaml:"cdn_base"`
	APIBase         string `yaml:"api_base"`
}

type rawMailConfig struct {
	Enable    *bool  `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Username  string `yaml:"username"`
	Pass      string `yaml:"pass"`
	Password  string `yaml:"password"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend *bool  `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type rawSlackConfig struct {
	Enable    *bool  `yaml:"enable"`
	BotToken  string `yaml:"bot_token"`
	Token     string `yaml:"token"`
	Channel   string `yaml:"channel"`
	ChannelID string `yaml:"channel_id"`
}

type rawPushConfig struct {
	Enable          *bool  `yaml:"enable"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
	ServiceAccount  string `yaml:"service_account"`
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDKey        string `yaml:"vapid_key"`
}
