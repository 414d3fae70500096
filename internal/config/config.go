// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Canvas  CanvasConfig  `mapstructure:"canvas"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Web     WebConfig     `mapstructure:"web"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CanvasConfig points the REST client at a Canvas instance.
type CanvasConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CrawlerConfig governs traversal behavior.
type CrawlerConfig struct {
	CourseID   string   `mapstructure:"course_id"`
	DepthLimit int      `mapstructure:"depth_limit"`
	OutputDir  string   `mapstructure:"output_dir"`
	SeedTypes  []string `mapstructure:"seed_types"`
}

// WebConfig configures the plain-HTTP page fetcher used for external links.
type WebConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ArchiveConfig bounds recursive zip expansion.
type ArchiveConfig struct {
	MaxDepth      int   `mapstructure:"max_depth"`
	MaxMembers    int   `mapstructure:"max_members"`
	MaxTotalBytes int64 `mapstructure:"max_total_bytes"`
}

// LedgerConfig controls the optional Postgres artifact ledger.
type LedgerConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CANVASCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
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
	// Empty defaults register the keys so AutomaticEnv can populate them
	// through Unmarshal.
	v.SetDefault("canvas.token", "")
	v.SetDefault("crawler.course_id", "")
	v.SetDefault("ledger.dsn", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")

	v.SetDefault("canvas.base_url", "https://learn.canvas.net")
	v.SetDefault("canvas.timeout_seconds", 30)
	v.SetDefault("crawler.depth_limit", 15)
	v.SetDefault("crawler.output_dir", "output")
	v.SetDefault("crawler.seed_types", []string{"modules", "assignments"})
	v.SetDefault("web.user_agent", "canvas-crawler/1.0")
	v.SetDefault("web.timeout_seconds", 15)
	v.SetDefault("archive.max_depth", 5)
	v.SetDefault("archive.max_members", 2000)
	v.SetDefault("archive.max_total_bytes", int64(1<<30))
	v.SetDefault("ledger.table", "crawl_artifacts")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Canvas.BaseURL == "" {
		return fmt.Errorf("canvas.base_url must be set")
	}
	if c.Canvas.TimeoutSeconds <= 0 {
		return fmt.Errorf("canvas.timeout_seconds must be > 0")
	}
	if c.Crawler.DepthLimit <= 0 {
		return fmt.Errorf("crawler.depth_limit must be > 0")
	}
	if c.Crawler.OutputDir == "" {
		return fmt.Errorf("crawler.output_dir must be set")
	}
	if c.Archive.MaxDepth <= 0 || c.Archive.MaxMembers <= 0 || c.Archive.MaxTotalBytes <= 0 {
		return fmt.Errorf("archive limits must be > 0")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// CanvasTimeout converts the configured Canvas timeout into a duration.
func (c Config) CanvasTimeout() time.Duration {
	return time.Duration(c.Canvas.TimeoutSeconds) * time.Second
}

// WebTimeout converts the configured web fetch timeout into a duration.
func (c Config) WebTimeout() time.Duration {
	return time.Duration(c.Web.TimeoutSeconds) * time.Second
}
