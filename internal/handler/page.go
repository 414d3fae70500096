package handler

import (
	"context"
	"fmt"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// pageHandler persists a wiki page, addressed by slug.
type pageHandler struct {
	base
	client crawler.CanvasClient
}

func (h *pageHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	slug, ok := crawler.StringID(item.ItemID)
	if !ok {
		return nil, fmt.Errorf("page item id %v is not a slug", item.ItemID)
	}
	return h.client.GetWikiPage(ctx, item.CourseID, slug)
}

func (h *pageHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	p, ok := raw.(*canvas.Page)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	return &crawler.Record{
		Type:     crawler.TypePage,
		ID:       p.URL,
		Title:    p.Title,
		URL:      p.HTMLURL,
		Depth:    item.Depth,
		Body:     p.Body,
		FilePath: fmt.Sprintf("pages/%s.html", p.URL),
	}, nil
}

// discussionHandler persists a discussion topic.
type discussionHandler struct {
	base
	client crawler.CanvasClient
}

func (h *discussionHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	topicID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetDiscussionTopic(ctx, item.CourseID, topicID)
}

func (h *discussionHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	d, ok := raw.(*canvas.Discussion)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	return &crawler.Record{
		Type:     crawler.TypeDiscussion,
		ID:       d.ID,
		Title:    d.Title,
		URL:      d.HTMLURL,
		Depth:    item.Depth,
		Body:     d.Message,
		FilePath: fmt.Sprintf("discussions/%d.html", d.ID),
	}, nil
}

// announcementHandler persists an announcement. Canvas serves announcements
// through the discussion-topics endpoint; only the record type differs.
type announcementHandler struct {
	base
	client crawler.CanvasClient
}

func (h *announcementHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	topicID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetDiscussionTopic(ctx, item.CourseID, topicID)
}

func (h *announcementHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	d, ok := raw.(*canvas.Discussion)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	return &crawler.Record{
		Type:     crawler.TypeAnnouncement,
		ID:       d.ID,
		Title:    d.Title,
		URL:      d.HTMLURL,
		Depth:    item.Depth,
		Body:     d.Message,
		FilePath: fmt.Sprintf("announcements/%d.html", d.ID),
	}, nil
}
