package handler

import (
	"context"
	"fmt"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// syllabusHandler persists the course syllabus HTML.
type syllabusHandler struct {
	base
	client crawler.CanvasClient
}

func (h *syllabusHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	return h.client.GetCourse(ctx, item.CourseID, true)
}

func (h *syllabusHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	course, ok := raw.(*canvas.Course)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	return &crawler.Record{
		Type:     crawler.TypeSyllabus,
		ID:       course.ID,
		Title:    course.Name,
		Depth:    item.Depth,
		Body:     course.SyllabusBody,
		FilePath: fmt.Sprintf("syllabus/%d.html", course.ID),
	}, nil
}
