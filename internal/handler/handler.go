// Package handler implements one ContentHandler per Canvas content type,
// sharing a fetch → locked-check → parse → save run sequence.
package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// Deps carries the collaborators every handler draws on.
type Deps struct {
	Client  crawler.CanvasClient
	Web     crawler.WebFetcher
	Storage crawler.Storage
	Hasher  crawler.Hasher
	Logger  *zap.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Client == nil:
		return fmt.Errorf("canvas client is required")
	case d.Web == nil:
		return fmt.Errorf("web fetcher is required")
	case d.Storage == nil:
		return fmt.Errorf("storage is required")
	case d.Hasher == nil:
		return fmt.Errorf("hasher is required")
	case d.Logger == nil:
		return fmt.Errorf("logger is required")
	}
	return nil
}

// operations is the per-type surface behind the shared run sequence. parse
// may return (nil, nil) to signal that nothing was produced and the engine
// must not expand the item.
type operations interface {
	fetch(ctx context.Context, item crawler.WorkItem) (any, error)
	parse(item crawler.WorkItem, raw any) (*crawler.Record, error)
	save(ctx context.Context, rec *crawler.Record) error
}

// lockedResource is satisfied by fetched payloads that can report a lock
// state and describe themselves well enough for a metadata-only stub.
type lockedResource interface {
	LockState() (locked bool, reason string)
	ResourceID() any
	ResourceTitle() string
	ResourceURL() string
}

// contentHandler binds one operations implementation to the shared run
// sequence, making every variant a crawler.ContentHandler.
type contentHandler struct {
	ops    operations
	logger *zap.Logger
}

// Run executes fetch, then either the locked-stub path or parse+save.
func (h contentHandler) Run(ctx context.Context, item crawler.WorkItem) (*crawler.Record, error) {
	raw, err := h.ops.fetch(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%v: %w", item.ContentType, item.ItemID, err)
	}

	if res, ok := raw.(lockedResource); ok {
		if locked, reason := res.LockState(); locked {
			rec := lockedStub(item, res, reason)
			if err := h.ops.save(ctx, rec); err != nil {
				return nil, fmt.Errorf("save locked stub %s/%v: %w", item.ContentType, item.ItemID, err)
			}
			h.logger.Warn("locked content",
				zap.String("content_type", item.ContentType),
				zap.Any("item_id", rec.ID),
				zap.String("course", item.CourseID),
				zap.String("reason", reason),
			)
			return rec, nil
		}
	}

	rec, err := h.ops.parse(item, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%v: %w", item.ContentType, item.ItemID, err)
	}
	if rec == nil {
		return nil, nil
	}
	if err := h.ops.save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save %s/%v: %w", item.ContentType, item.ItemID, err)
	}
	return rec, nil
}

// lockedStub builds the default metadata-only record for locked content. The
// body stays empty, so no secondary artifact is ever written; the stub path
// under locked/ is recorded only.
func lockedStub(item crawler.WorkItem, res lockedResource, reason string) *crawler.Record {
	id := res.ResourceID()
	if id == nil {
		id = item.ItemID
	}
	return &crawler.Record{
		Type:            item.ContentType,
		ID:              id,
		Title:           res.ResourceTitle(),
		URL:             res.ResourceURL(),
		Depth:           item.Depth,
		LockedForUser:   true,
		LockExplanation: reason,
		Body:            "",
		FilePath:        fmt.Sprintf("locked/%v.html", id),
	}
}

// base supplies the default save: write the JSON record, and the body as an
// HTML artifact when present.
type base struct {
	storage crawler.Storage
	logger  *zap.Logger
}

func (b base) save(ctx context.Context, rec *crawler.Record) error {
	if _, err := b.storage.WriteJSON(rec); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if rec.Body != "" {
		if err := b.storage.WriteHTML(rec.Body, rec.FilePath); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	return nil
}

func numericItemID(item crawler.WorkItem) (int64, error) {
	id, ok := crawler.NumericID(item.ItemID)
	if !ok {
		return 0, fmt.Errorf("item id %v is not numeric", item.ItemID)
	}
	return id, nil
}
