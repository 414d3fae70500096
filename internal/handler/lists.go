package handler

import (
	"context"
	"fmt"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// List handlers produce summary records naming the child ids. They exist for
// discovery bookkeeping; the engine's structured expansion does the fan-out.

type modulesHandler struct {
	base
	client crawler.CanvasClient
}

func (h *modulesHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	return h.client.GetModules(ctx, item.CourseID)
}

func (h *modulesHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	modules, ok := raw.([]canvas.Module)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	items := make([]any, 0, len(modules))
	for _, m := range modules {
		items = append(items, m.ID)
	}
	return &crawler.Record{
		Type:   crawler.TypeModules,
		Course: item.CourseID,
		Items:  items,
		Depth:  item.Depth,
	}, nil
}

type assignmentsHandler struct {
	base
	client crawler.CanvasClient
}

func (h *assignmentsHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	return h.client.GetAssignments(ctx, item.CourseID)
}

func (h *assignmentsHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	assignments, ok := raw.([]canvas.Assignment)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	items := make([]any, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, a.ID)
	}
	return &crawler.Record{
		Type:   crawler.TypeAssignments,
		Course: item.CourseID,
		Items:  items,
		Depth:  item.Depth,
	}, nil
}

type pagesHandler struct {
	base
	client crawler.CanvasClient
}

func (h *pagesHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	return h.client.ListPages(ctx, item.CourseID)
}

func (h *pagesHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	pages, ok := raw.([]canvas.Page)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	items := make([]any, 0, len(pages))
	for _, p := range pages {
		items = append(items, p.URL)
	}
	return &crawler.Record{
		Type:   crawler.TypePages,
		Course: item.CourseID,
		Items:  items,
		Depth:  item.Depth,
	}, nil
}

type announcementsHandler struct {
	base
	client crawler.CanvasClient
}

func (h *announcementsHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	return h.client.GetAnnouncements(ctx, item.CourseID)
}

func (h *announcementsHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	announcements, ok := raw.([]canvas.Discussion)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	items := make([]any, 0, len(announcements))
	for _, a := range announcements {
		items = append(items, a.ID)
	}
	return &crawler.Record{
		Type:   crawler.TypeAnnouncements,
		Course: item.CourseID,
		Items:  items,
		Depth:  item.Depth,
	}, nil
}
