package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server section of the configuration.
type Config struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	DevMode        bool     `mapstructure:"dev_mode"`
	ReadOnly       bool     `mapstructure:"read_only"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst"`
	TrustProxy     bool     `mapstructure:"trust_proxy"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Options converts the config into server Options.
func (c *Config) Options() Options {
	return Options{
		DevMode:    c.DevMode,
		ReadOnly:   c.ReadOnly,
		RateLimit:  c.RateLimit,
		RateBurst:  c.RateBurst,
		TrustProxy: c.TrustProxy,
	}
}

// SetDefaults registers every configuration default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", 100.0)
	v.SetDefault("server.rate_burst", 200)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.path", "./data/droidspec.db")

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.fetch_timeout", "30s")
	v.SetDefault("catalog.fetch_retries", 3)

	v.SetDefault("pagination.items_per_page", 24)
	v.SetDefault("export.pretty", true)
}

// LoadConfig reads configuration from file and environment variables.
// An empty configPath searches ./droidspec.yaml, ./configs and
// /etc/droidspec; a missing file is not an error.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("droidspec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/droidspec")
	}

	// Environment variable support: DS_SERVER_PORT=9090
	v.SetEnvPrefix("DS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// ServerConfig reads the server section of v. Keys are read one by one so
// that environment overrides apply.
func ServerConfig(v *viper.Viper) *Config {
	return &Config{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		DevMode:        v.GetBool("server.dev_mode"),
		ReadOnly:       v.GetBool("server.read_only"),
		AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
		RateLimit:      v.GetFloat64("server.rate_limit"),
		RateBurst:      v.GetInt("server.rate_burst"),
		TrustProxy:     v.GetBool("server.trust_proxy"),
	}
}
