package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://learn.canvas.net", cfg.Canvas.BaseURL)
	assert.Equal(t, 30, cfg.Canvas.TimeoutSeconds)
	assert.Equal(t, 15, cfg.Crawler.DepthLimit)
	assert.Equal(t, "output", cfg.Crawler.OutputDir)
	assert.Equal(t, []string{"modules", "assignments"}, cfg.Crawler.SeedTypes)
	assert.Equal(t, 5, cfg.Archive.MaxDepth)
	assert.Equal(t, 2000, cfg.Archive.MaxMembers)
	assert.Equal(t, int64(1<<30), cfg.Archive.MaxTotalBytes)
	assert.Equal(t, "crawl_artifacts", cfg.Ledger.Table)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
canvas:
  base_url: https://canvas.example.edu
  token: file-token
crawler:
  course_id: "1234"
  depth_limit: 4
  output_dir: /tmp/crawl
pubsub:
  project_id: edtools-prod
  topic_name: crawl-artifacts
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://canvas.example.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, "file-token", cfg.Canvas.Token)
	assert.Equal(t, "1234", cfg.Crawler.CourseID)
	assert.Equal(t, 4, cfg.Crawler.DepthLimit)
	assert.Equal(t, "crawl-artifacts", cfg.PubSub.TopicName)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CANVASCRAWL_CANVAS_TOKEN", "env-token")
	t.Setenv("CANVASCRAWL_CRAWLER_DEPTH_LIMIT", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Canvas.Token)
	assert.Equal(t, 7, cfg.Crawler.DepthLimit)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Canvas.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Canvas.TimeoutSeconds = 0 }},
		{"zero depth limit", func(c *Config) { c.Crawler.DepthLimit = 0 }},
		{"missing output dir", func(c *Config) { c.Crawler.OutputDir = "" }},
		{"zero archive depth", func(c *Config) { c.Archive.MaxDepth = 0 }},
		{"topic without project", func(c *Config) {
			c.PubSub.TopicName = "t"
			c.PubSub.ProjectID = ""
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
