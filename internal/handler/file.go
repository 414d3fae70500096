package handler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// fileHandler persists file metadata and downloads the binary to a path keyed
// by id and extension. Zip attachments are expanded in place after download.
type fileHandler struct {
	storage crawler.Storage
	client  crawler.CanvasClient
	logger  *zap.Logger
}

func (h *fileHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	fileID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetFile(ctx, item.CourseID, fileID)
}

func (h *fileHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	f, ok := raw.(*canvas.File)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	ext := fileExtension(f)
	return &crawler.Record{
		Type:      crawler.TypeFile,
		ID:        f.ID,
		Title:     f.DisplayName,
		Extension: ext,
		URL:       f.URL,
		Depth:     item.Depth,
		FilePath:  fmt.Sprintf("files/%d.%s", f.ID, ext),
	}, nil
}

// save overrides the default: the artifact is the downloaded binary, not an
// HTML body. A missing download URL degrades to metadata only.
func (h *fileHandler) save(ctx context.Context, rec *crawler.Record) error {
	if _, err := h.storage.WriteJSON(rec); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if rec.LockedForUser {
		return nil
	}
	if rec.URL == "" {
		h.logger.Warn("no download URL for file, skipping download", zap.Any("file_id", rec.ID))
		return nil
	}
	if err := h.storage.DownloadFile(ctx, rec.URL, rec.FilePath); err != nil {
		h.logger.Warn("file download failed",
			zap.Any("file_id", rec.ID),
			zap.String("file_path", rec.FilePath),
			zap.Error(err),
		)
		return nil
	}
	if rec.Extension == "zip" {
		if err := h.storage.ExtractArchive(ctx, rec.FilePath, rec); err != nil {
			h.logger.Warn("archive expansion failed",
				zap.Any("file_id", rec.ID),
				zap.String("file_path", rec.FilePath),
				zap.Error(err),
			)
		}
	}
	return nil
}

// fileExtension derives an extension from the filename, falling back to the
// content type's subtype when the filename has none.
func fileExtension(f *canvas.File) string {
	if ext := strings.TrimPrefix(path.Ext(f.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if i := strings.LastIndex(f.ContentType, "/"); i >= 0 && i+1 < len(f.ContentType) {
		return strings.ToLower(f.ContentType[i+1:])
	}
	return "bin"
}
