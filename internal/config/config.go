// Package config loads and validates pageview scraper configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	collyfetcher "github.com/JakeFAU/pageviews/internal/fetcher/colly"
	"github.com/JakeFAU/pageviews/internal/logging"
	"github.com/JakeFAU/pageviews/internal/storage/local"
)

// Default source settings.
const (
	DefaultSourceURL = "https://clustrmaps.com/site/1b50n"
	DefaultSince     = "2020-03-10"
)

// EnvPrefix namespaces environment overrides, e.g. PAGEVIEWS_OUTPUT_PATH.
const EnvPrefix = "PAGEVIEWS"

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"url":         "source.url",
	"output":      "output.path",
	"development": "logging.development",
	"log-level":   "logging.level",
	"metrics":     "metrics.textfile",
}

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig   `mapstructure:"source"`
	Output  local.Config   `mapstructure:"output"`
	Logging logging.Config `mapstructure:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Mirror  MirrorConfig   `mapstructure:"mirror"`
	Notify  NotifyConfig   `mapstructure:"notify"`
}

// SourceConfig describes the analytics page and how it is requested.
type SourceConfig struct {
	URL            string `mapstructure:"url"`
	UserAgent      string `mapstructure:"user_agent"`
	Accept         string `mapstructure:"accept"`
	Since          string `mapstructure:"since"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// MetricsConfig points at an optional node_exporter textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// MirrorConfig enables copying the record to a GCS object.
type MirrorConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Object    string `mapstructure:"object"`
}

// NotifyConfig enables Pub/Sub messages when the count changes.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load builds a Config from defaults, an optional file, the environment and
// any changed flags in flags (which may be nil).
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.user_agent", collyfetcher.DefaultUserAgent)
	v.SetDefault("source.accept", collyfetcher.DefaultAccept)
	v.SetDefault("source.since", DefaultSince)
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("output.path", local.DefaultPath)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("mirror.gcs_bucket", "")
	v.SetDefault("mirror.object", "")
	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.url must be an absolute http(s) URL, got %q", c.Source.URL)
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("output.path must be set")
	}
	if c.Mirror.GCSBucket != "" && strings.TrimSpace(c.Mirror.Object) == "" {
		return fmt.Errorf("mirror.object must be set when mirror.gcs_bucket is set")
	}
	if (c.Notify.ProjectID == "") != (c.Notify.Topic == "") {
		return fmt.Errorf("notify.project_id and notify.topic must be set together")
	}
	return nil
}

// RequestTimeout converts the configured timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// MirrorEnabled reports whether the GCS mirror is configured.
func (c Config) MirrorEnabled() bool {
	return c.Mirror.GCSBucket != ""
}

// NotifyEnabled reports whether Pub/Sub notifications are configured.
func (c Config) NotifyEnabled() bool {
	return c.Notify.Topic != ""
}
