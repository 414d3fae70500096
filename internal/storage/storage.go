// Package storage persists JSON records and raw artifacts under a base
// output directory, and safely expands nested zip attachments.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/crawler"
	"github.com/edtools/canvas-crawler/internal/metrics"
)

// ArchiveLimits bounds recursive archive expansion. Exceeding any limit
// truncates further extraction with a warning, never a fatal error.
type ArchiveLimits struct {
	MaxDepth      int
	MaxMembers    int
	MaxTotalBytes int64
}

// DefaultArchiveLimits returns the limits used when none are configured.
func DefaultArchiveLimits() ArchiveLimits {
	return ArchiveLimits{
		MaxDepth:      5,
		MaxMembers:    2000,
		MaxTotalBytes: 1 << 30,
	}
}

// Config captures the storage manager's parameters.
type Config struct {
	BaseDir     string
	HTTPTimeout time.Duration
	Limits      ArchiveLimits
}

// Manager writes all crawl output relative to a base directory on the given
// filesystem. It is not safe for concurrent use; the crawl loop is the sole
// writer.
type Manager struct {
	fs      afero.Fs
	baseDir string
	http    *http.Client
	limits  ArchiveLimits
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewManager creates a Manager rooted at cfg.BaseDir, creating it if needed.
func NewManager(fs afero.Fs, cfg Config, m *metrics.Metrics, logger *zap.Logger) (*Manager, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := fs.MkdirAll(cfg.BaseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", cfg.BaseDir, err)
	}
	limits := cfg.Limits
	if limits.MaxDepth <= 0 {
		limits = DefaultArchiveLimits()
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Manager{
		fs:      fs,
		baseDir: filepath.Clean(cfg.BaseDir),
		http:    &http.Client{Timeout: timeout},
		limits:  limits,
		metrics: m,
		logger:  logger,
	}, nil
}

// JSONFileName derives a record's JSON filename from its type, plus the id
// when present.
func JSONFileName(rec *crawler.Record) string {
	if rec.ID == nil {
		return fmt.Sprintf("%s.json", rec.Type)
	}
	return fmt.Sprintf("%s_%v.json", rec.Type, rec.ID)
}

// WriteJSON persists the record under json_output/ and returns the relative
// path. Repeat runs overwrite in place, so unchanged upstream content yields
// byte-identical output.
func (m *Manager) WriteJSON(rec *crawler.Record) (string, error) {
	rel := path.Join("json_output", JSONFileName(rec))
	if err := m.writeJSONAt(rec, rel); err != nil {
		return "", err
	}
	return rel, nil
}

func (m *Manager) writeJSONAt(rec *crawler.Record, relPath string) error {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	full := filepath.Join(m.baseDir, filepath.FromSlash(relPath))
	if err := m.fs.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create json dir for %s: %w", full, err)
	}
	if err := afero.WriteFile(m.fs, full, payload, 0o600); err != nil {
		return fmt.Errorf("write json %s: %w", full, err)
	}
	m.logger.Debug("wrote JSON record", zap.String("path", full))
	return nil
}

// WriteHTML writes a record body as an HTML artifact at relPath.
func (m *Manager) WriteHTML(body, relPath string) error {
	full := filepath.Join(m.baseDir, filepath.FromSlash(relPath))
	if err := m.fs.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create html dir for %s: %w", full, err)
	}
	if err := afero.WriteFile(m.fs, full, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write html %s: %w", full, err)
	}
	m.logger.Debug("wrote HTML body", zap.String("path", full))
	return nil
}

// DownloadFile streams url to relPath, creating parent directories as needed.
func (m *Manager) DownloadFile(ctx context.Context, url, relPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			m.logger.Warn("close download body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	full := filepath.Join(m.baseDir, filepath.FromSlash(relPath))
	if err := m.fs.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create download dir for %s: %w", full, err)
	}
	out, err := m.fs.Create(full)
	if err != nil {
		return fmt.Errorf("create %s: %w", full, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			m.logger.Warn("close downloaded file", zap.Error(cerr))
		}
	}()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("stream %s: %w", full, err)
	}
	m.logger.Debug("downloaded file", zap.String("path", full))
	return nil
}
