package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/metrics"
)

// EngineConfig holds the settings for one crawl run.
type EngineConfig struct {
	CourseID   string
	DepthLimit int
	SeedTypes  []string
	Topic      string
}

// DefaultSeedTypes are the course-level lists queued at depth 0 when the
// configuration does not name its own seed set.
var DefaultSeedTypes = []string{TypeModules, TypeAssignments}

// Engine drives a breadth-first exploration of the course content graph with
// at-most-once processing per (content_type, item_id) and a hard depth
// ceiling. It is strictly single-threaded: every fetch blocks the loop, and
// the visited set and queue are never touched concurrently.
type Engine struct {
	cfg       EngineConfig
	client    CanvasClient
	registry  HandlerRegistry
	metrics   *metrics.Metrics
	ledger    Ledger
	publisher Publisher
	runID     string
	logger    *zap.Logger

	queue []WorkItem
	seen  map[string]struct{}
}

// NewEngine constructs an Engine. Metrics, ledger and publisher may be nil;
// the engine then runs without them.
func NewEngine(
	cfg EngineConfig,
	client CanvasClient,
	registry HandlerRegistry,
	m *metrics.Metrics,
	ledger Ledger,
	publisher Publisher,
	runID string,
	logger *zap.Logger,
) *Engine {
	if len(cfg.SeedTypes) == 0 {
		cfg.SeedTypes = DefaultSeedTypes
	}
	return &Engine{
		cfg:       cfg,
		client:    client,
		registry:  registry,
		metrics:   m,
		ledger:    ledger,
		publisher: publisher,
		runID:     runID,
		logger:    logger,
		seen:      make(map[string]struct{}),
	}
}

// Run seeds the queue and drains it. Per-item failures are logged and
// absorbed; the only error ever returned is context cancellation.
func (e *Engine) Run(ctx context.Context) error {
	for _, seed := range e.cfg.SeedTypes {
		e.Enqueue(WorkItem{ContentType: seed, CourseID: e.cfg.CourseID, Depth: 0})
	}

	for len(e.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl interrupted: %w", err)
		}
		item := e.queue[0]
		e.queue = e.queue[1:]
		e.process(ctx, item)
	}
	return nil
}

func (e *Engine) process(ctx context.Context, item WorkItem) {
	if item.Depth > e.cfg.DepthLimit {
		e.logger.Debug("depth limit reached",
			zap.String("content_type", item.ContentType),
			zap.Any("item_id", item.ItemID),
			zap.Int("depth", item.Depth),
		)
		return
	}
	key := item.Key()
	if _, ok := e.seen[key]; ok {
		return
	}
	e.seen[key] = struct{}{}

	handler, err := e.registry.Get(item.ContentType)
	if err != nil {
		e.logger.Error("no handler at dequeue time",
			zap.String("content_type", item.ContentType),
			zap.Any("item_id", item.ItemID),
			zap.Error(err),
		)
		e.metrics.IncFailed(item.ContentType)
		return
	}

	rec, err := handler.Run(ctx, item)
	if err != nil {
		e.logger.Error("failed to handle item",
			zap.String("content_type", item.ContentType),
			zap.Any("item_id", item.ItemID),
			zap.Int("depth", item.Depth),
			zap.Error(err),
		)
		e.metrics.IncFailed(item.ContentType)
		return
	}
	e.metrics.IncProcessed(item.ContentType)

	if rec == nil {
		// Sentinel for "nothing to process further", e.g. a misrouted item.
		return
	}

	e.recordArtifact(ctx, item, rec)

	if rec.LockedForUser {
		return
	}
	if item.ContentType == TypeExternalLink {
		// Terminal leaf: fetched once, never expanded.
		return
	}

	for _, child := range e.expandStructured(ctx, item) {
		e.Enqueue(child)
	}
	for _, child := range e.expandLinks(item, rec) {
		e.Enqueue(child)
	}
}

// Enqueue admits an item to the queue only if its content type is
// dispatchable, so nothing unhandleable ever enters the queue.
func (e *Engine) Enqueue(item WorkItem) bool {
	if !e.registry.Has(item.ContentType) {
		e.logger.Error("rejected enqueue of unregistered content type",
			zap.String("content_type", item.ContentType),
			zap.Any("item_id", item.ItemID),
		)
		e.metrics.IncRejected()
		return false
	}
	e.queue = append(e.queue, item)
	return true
}

// QueueLen exposes the current queue length for tests and logging.
func (e *Engine) QueueLen() int {
	return len(e.queue)
}

// expandLinks classifies every hyperlink in the record's body against the
// platform base URL. Matches become typed children; unmatched absolute
// http(s) links become terminal external_link items.
func (e *Engine) expandLinks(item WorkItem, rec *Record) []WorkItem {
	if rec.Body == "" {
		return nil
	}
	base := e.client.ServerURL()

	var children []WorkItem
	for _, href := range ExtractHrefs(rec.Body) {
		if ref, ok := Classify(href, base); ok {
			e.metrics.IncLink("internal")
			children = append(children, WorkItem{
				ContentType: ref.ContentType,
				CourseID:    item.CourseID,
				ItemID:      ref.ItemID,
				Depth:       item.Depth + 1,
			})
			continue
		}
		if IsAbsoluteHTTP(href) {
			e.metrics.IncLink("external")
			children = append(children, WorkItem{
				ContentType: TypeExternalLink,
				CourseID:    item.CourseID,
				ItemID:      href,
				Depth:       item.Depth + 1,
			})
		}
	}
	return children
}

func (e *Engine) recordArtifact(ctx context.Context, item WorkItem, rec *Record) {
	if e.ledger != nil {
		entry := ArtifactEntry{
			RunID:       e.runID,
			ContentType: item.ContentType,
			ItemID:      rec.ID,
			Title:       rec.Title,
			URL:         rec.URL,
			FilePath:    rec.FilePath,
			Depth:       rec.Depth,
			Locked:      rec.LockedForUser,
			RetrievedAt: time.Now().UTC(),
		}
		if err := e.ledger.RecordArtifact(ctx, entry); err != nil {
			e.logger.Warn("ledger write failed",
				zap.String("content_type", item.ContentType),
				zap.Any("item_id", rec.ID),
				zap.Error(err),
			)
		}
	}
	if e.publisher != nil && e.cfg.Topic != "" {
		payload := map[string]any{
			"run_id":       e.runID,
			"content_type": item.ContentType,
			"item_id":      rec.ID,
			"file_path":    rec.FilePath,
			"depth":        rec.Depth,
			"locked":       rec.LockedForUser,
		}
		if _, err := e.publisher.Publish(ctx, e.cfg.Topic, payload); err != nil {
			e.logger.Warn("publish artifact event failed",
				zap.String("content_type", item.ContentType),
				zap.Any("item_id", rec.ID),
				zap.Error(err),
			)
		}
	}
}
