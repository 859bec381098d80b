package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from a yaml file and environment variables.
// Environment variables use the INSIGHT_ prefix with dots replaced by
// underscores, e.g. INSIGHT_META_APP_SECRET.
func LoadConfig() (*Config, error) {
	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/insight-service")
	}

	viper.SetEnvPrefix("INSIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine, env vars can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("meta.graph_url", "https://graph.facebook.com/v20.0")
	viper.SetDefault("meta.dialog_url", "https://www.facebook.com/v20.0")
	viper.SetDefault("meta.scopes", []string{"pages_show_list", "instagram_basic"})
	viper.SetDefault("meta.state_ttl", 10*time.Minute)
	viper.SetDefault("meta.request_timeout", 30*time.Second)
	viper.SetDefault("snapshots.interval", 24*time.Hour)
	viper.SetDefault("snapshots.media_page_size", 50)
	viper.SetDefault("snapshots.media_total_cap", 200)
	viper.SetDefault("snapshots.seen_event_retention", time.Duration(0))
	viper.SetDefault("redis.token_ttl", time.Hour)
}
