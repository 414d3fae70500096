// Package ledger records every persisted crawl artifact for auditing.
package ledger

import (
	"context"
	"sync"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// Memory is an in-memory ledger for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	entries []crawler.ArtifactEntry
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// RecordArtifact appends the entry.
func (m *Memory) RecordArtifact(_ context.Context, entry crawler.ArtifactEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (m *Memory) Entries() []crawler.ArtifactEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]crawler.ArtifactEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
