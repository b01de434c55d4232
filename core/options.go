package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"gopkg.in/yaml.v3"
)

const EnvPublicKey = "DISCORD_PUBLIC_KEY"

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// ConfigSources are the layers merged on top of DefaultConfig, lowest priority first.
type ConfigSources struct {
	File  RawConfigLoader
	Env   RawConfigLoader
	Flags RawConfigLoader
}

// LoadConfig merges defaults < file < env < flags and validates the result.
func LoadConfig(ctx context.Context, sources ConfigSources) (Config, error) {
	defaults := DefaultConfig()
	fileLayer, err := loadLayer(ctx, sources.File)
	if err != nil {
		return Config{}, ConfigError(err, "core: load config file", nil)
	}
	envLayer, err := loadLayer(ctx, sources.Env)
	if err != nil {
		return Config{}, ConfigError(err, "core: load environment", nil)
	}
	flagLayer, err := loadLayer(ctx, sources.Flags)
	if err != nil {
		return Config{}, ConfigError(err, "core: load flags", nil)
	}

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("file", 10),
			fileLayer,
			opts.WithSnapshotID[map[string]any]("file"),
		),
		opts.NewLayer(
			opts.NewScope("env", 20),
			envLayer,
			opts.WithSnapshotID[map[string]any]("env"),
		),
		opts.NewLayer(
			opts.NewScope("flags", 30),
			flagLayer,
			opts.WithSnapshotID[map[string]any]("flags"),
		),
	)
	if err != nil {
		return Config{}, ConfigError(err, "core: options stack build failed", nil)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, ConfigError(err, "core: options merge failed", nil)
	}
	cfg, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, ConfigError(err, "core: invalid configuration", nil)
	}
	return cfg, nil
}

func loadLayer(ctx context.Context, loader RawConfigLoader) (map[string]any, error) {
	if loader == nil {
		return map[string]any{}, nil
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	return raw, nil
}

// StaticConfigLoader returns a fixed raw layer. Used for flags and tests.
type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// YAMLFileLoader reads a YAML document. An empty Path yields an empty layer.
type YAMLFileLoader struct {
	Path string
}

func (l YAMLFileLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("core: read config file %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: parse config file %s: %w", path, err)
	}
	return raw, nil
}

// EnvConfigLoader maps process environment variables onto config keys.
type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() EnvConfigLoader {
	return EnvConfigLoader{Lookup: os.LookupEnv}
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}

	raw := map[string]any{}
	if value := get(EnvPublicKey); value != "" {
		raw["public_key"] = value
	}

	server := map[string]any{}
	if port := get("PORT"); port != "" {
		server["address"] = ":" + port
	}
	if value := get("INTERACTIONS_ADDRESS"); value != "" {
		server["address"] = value
	}
	setSection(raw, "server", server)

	logging := map[string]any{}
	if value := get("INTERACTIONS_LOG_LEVEL"); value != "" {
		logging["level"] = value
	}
	if value := get("INTERACTIONS_LOG_FORMAT"); value != "" {
		logging["format"] = value
	}
	setSection(raw, "logging", logging)

	callback := map[string]any{}
	if value := get("INTERACTIONS_CALLBACK_BASE_URL"); value != "" {
		callback["base_url"] = value
	}
	setSection(raw, "callback", callback)

	content := map[string]any{}
	if value := get("INTERACTIONS_CONTENT_PROVIDER"); value != "" {
		content["provider"] = value
	}
	setSection(raw, "content", content)

	events := map[string]any{}
	if value := get("INTERACTIONS_KAFKA_BROKERS"); value != "" {
		events["brokers"] = splitList(value)
	}
	if value := get("INTERACTIONS_KAFKA_TOPIC"); value != "" {
		events["topic"] = value
	}
	setSection(raw, "events", events)

	return raw, nil
}

func setSection(raw map[string]any, key string, section map[string]any) {
	if len(section) > 0 {
		raw[key] = section
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func configToLayerMap(cfg Config) map[string]any {
	return map[string]any{
		"service_name": cfg.ServiceName,
		"public_key":   cfg.PublicKey,
		"server": map[string]any{
			"address":          cfg.Server.Address,
			"body_limit_bytes": cfg.Server.BodyLimitBytes,
			"read_timeout":     cfg.Server.ReadTimeout,
			"write_timeout":    cfg.Server.WriteTimeout,
			"shutdown_timeout": cfg.Server.ShutdownTimeout,
		},
		"callback": map[string]any{
			"base_url":   cfg.Callback.BaseURL,
			"timeout":    cfg.Callback.Timeout,
			"workers":    cfg.Callback.Workers,
			"queue_size": cfg.Callback.QueueSize,
		},
		"content": map[string]any{
			"provider":          cfg.Content.Provider,
			"static_content":    cfg.Content.StaticContent,
			"leetcode_endpoint": cfg.Content.LeetCodeEndpoint,
			"timeout":           cfg.Content.Timeout,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
		"events": map[string]any{
			"brokers": append([]string(nil), cfg.Events.Brokers...),
			"topic":   cfg.Events.Topic,
		},
	}
}
