package config

import "time"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Meta      MetaConfig      `mapstructure:"meta"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots"`
	Replies   RepliesConfig   `mapstructure:"replies"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MetaConfig holds the Meta Graph application credentials and endpoints.
// GraphURL and DialogURL default to the v20.0 hosts; tests point them at a
// local server.
type MetaConfig struct {
	AppID              string        `mapstructure:"app_id"`
	AppSecret          string        `mapstructure:"app_secret"`
	RedirectURL        string        `mapstructure:"redirect_url"`
	Scopes             []string      `mapstructure:"scopes"`
	GraphURL           string        `mapstructure:"graph_url"`
	DialogURL          string        `mapstructure:"dialog_url"`
	StateSecret        string        `mapstructure:"state_secret"`
	StateTTL           time.Duration `mapstructure:"state_ttl"`
	StaticUserToken    string        `mapstructure:"static_user_token"`
	WebhookVerifyToken string        `mapstructure:"webhook_verify_token"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	SuccessRedirectURL string        `mapstructure:"success_redirect_url"`
	ErrorRedirectURL   string        `mapstructure:"error_redirect_url"`
}

type SnapshotsConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	MediaPageSize      int           `mapstructure:"media_page_size"`
	MediaTotalCap      int           `mapstructure:"media_total_cap"`
	SeenEventRetention time.Duration `mapstructure:"seen_event_retention"`
}

// RepliesConfig controls automatic comment replies. An empty draft
// template disables drafting, so auto replies need explicit text.
type RepliesConfig struct {
	DraftTemplate string `mapstructure:"draft_template"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
