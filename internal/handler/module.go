package handler

import (
	"context"
	"fmt"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// moduleDetail pairs a module with its ordered items.
type moduleDetail struct {
	Module *canvas.Module
	Items  []canvas.ModuleItem
}

// moduleHandler records a single module and its item ids. The item-type
// mapping onto child work items happens in the engine's structured expansion,
// not here.
type moduleHandler struct {
	base
	client crawler.CanvasClient
}

func (h *moduleHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	moduleID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	module, err := h.client.GetModule(ctx, item.CourseID, moduleID)
	if err != nil {
		return nil, err
	}
	items, err := h.client.GetModuleItems(ctx, item.CourseID, moduleID)
	if err != nil {
		return nil, err
	}
	return &moduleDetail{Module: module, Items: items}, nil
}

func (h *moduleHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	detail, ok := raw.(*moduleDetail)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	items := make([]any, 0, len(detail.Items))
	for _, mi := range detail.Items {
		items = append(items, mi.ID)
	}
	return &crawler.Record{
		Type:  crawler.TypeModule,
		ID:    detail.Module.ID,
		Title: detail.Module.Name,
		Items: items,
		Depth: item.Depth,
	}, nil
}
