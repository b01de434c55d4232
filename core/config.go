package core

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	ContentProviderStatic   = "static"
	ContentProviderLeetCode = "leetcode"

	DefaultCallbackBaseURL  = "https://discord.com/api/v10"
	DefaultStaticContent    = "https://leetcode.com/problems/two-sum"
	DefaultLeetCodeEndpoint = "https://leetcode.com/graphql"
)

type ServerConfig struct {
	Address         string `koanf:"address" mapstructure:"address"`
	BodyLimitBytes  int64  `koanf:"body_limit_bytes" mapstructure:"body_limit_bytes"`
	ReadTimeout     string `koanf:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type CallbackConfig struct {
	BaseURL   string `koanf:"base_url" mapstructure:"base_url"`
	Timeout   string `koanf:"timeout" mapstructure:"timeout"`
	Workers   int    `koanf:"workers" mapstructure:"workers"`
	QueueSize int    `koanf:"queue_size" mapstructure:"queue_size"`
}

type ContentConfig struct {
	Provider         string `koanf:"provider" mapstructure:"provider"`
	StaticContent    string `koanf:"static_content" mapstructure:"static_content"`
	LeetCodeEndpoint string `koanf:"leetcode_endpoint" mapstructure:"leetcode_endpoint"`
	Timeout          string `koanf:"timeout" mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

type EventsConfig struct {
	Brokers []string `koanf:"brokers" mapstructure:"brokers"`
	Topic   string   `koanf:"topic" mapstructure:"topic"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	PublicKey   string         `koanf:"public_key" mapstructure:"public_key"`
	Server      ServerConfig   `koanf:"server" mapstructure:"server"`
	Callback    CallbackConfig `koanf:"callback" mapstructure:"callback"`
	Content     ContentConfig  `koanf:"content" mapstructure:"content"`
	Logging     LoggingConfig  `koanf:"logging" mapstructure:"logging"`
	Events      EventsConfig   `koanf:"events" mapstructure:"events"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "interactions",
		Server: ServerConfig{
			Address:         "0.0.0.0:3000",
			BodyLimitBytes:  8192,
			ReadTimeout:     "5s",
			WriteTimeout:    "5s",
			ShutdownTimeout: "10s",
		},
		Callback: CallbackConfig{
			BaseURL:   DefaultCallbackBaseURL,
			Timeout:   "10s",
			Workers:   4,
			QueueSize: 256,
		},
		Content: ContentConfig{
			Provider:         ContentProviderStatic,
			StaticContent:    DefaultStaticContent,
			LeetCodeEndpoint: DefaultLeetCodeEndpoint,
			Timeout:          "15s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			Topic: "interactions.callbacks",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.PublicKey) == "" {
		return fmt.Errorf("core: public_key is required")
	}
	if _, _, err := net.SplitHostPort(strings.TrimSpace(c.Server.Address)); err != nil {
		return fmt.Errorf("core: invalid server.address %q: %w", c.Server.Address, err)
	}
	if c.Server.BodyLimitBytes <= 0 {
		return fmt.Errorf("core: server.body_limit_bytes must be positive")
	}
	for key, value := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"callback.timeout":        c.Callback.Timeout,
		"content.timeout":         c.Content.Timeout,
	} {
		if _, err := parsePositiveDuration(value); err != nil {
			return fmt.Errorf("core: invalid %s: %w", key, err)
		}
	}
	if err := validateHTTPURL(c.Callback.BaseURL); err != nil {
		return fmt.Errorf("core: invalid callback.base_url: %w", err)
	}
	if c.Callback.Workers <= 0 {
		return fmt.Errorf("core: callback.workers must be positive")
	}
	if c.Callback.QueueSize <= 0 {
		return fmt.Errorf("core: callback.queue_size must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Content.Provider)) {
	case ContentProviderStatic:
		if strings.TrimSpace(c.Content.StaticContent) == "" {
			return fmt.Errorf("core: content.static_content is required for the static provider")
		}
	case ContentProviderLeetCode:
		if err := validateHTTPURL(c.Content.LeetCodeEndpoint); err != nil {
			return fmt.Errorf("core: invalid content.leetcode_endpoint: %w", err)
		}
	default:
		return fmt.Errorf("core: unsupported content.provider %q", c.Content.Provider)
	}
	if len(c.Events.Brokers) > 0 && strings.TrimSpace(c.Events.Topic) == "" {
		return fmt.Errorf("core: events.topic is required when brokers are configured")
	}
	return nil
}

func (c ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout, 5*time.Second)
}

func (c ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout, 5*time.Second)
}

func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout, 10*time.Second)
}

func (c CallbackConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout, 10*time.Second)
}

func (c ContentConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout, 15*time.Second)
}

func parsePositiveDuration(value string) (time.Duration, error) {
	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if duration <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", duration)
	}
	return duration, nil
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	duration, err := parsePositiveDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
