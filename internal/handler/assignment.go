package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// assignmentHandler persists a single assignment. Assignments flagged
// quiz_lti are New Quizzes the Assignments API cannot render; they must be
// reached through the module-item path, so parse yields no record for them.
type assignmentHandler struct {
	base
	client crawler.CanvasClient
	logger *zap.Logger
}

func (h *assignmentHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	assignmentID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetAssignment(ctx, item.CourseID, assignmentID)
}

func (h *assignmentHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	a, ok := raw.(*canvas.Assignment)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	if a.QuizLTI {
		h.logger.Info("skipping New Quiz discovered via assignments",
			zap.String("course", item.CourseID),
			zap.Int64("assignment_id", a.ID),
		)
		return nil, nil
	}
	return &crawler.Record{
		Type:           crawler.TypeAssignment,
		ID:             a.ID,
		Title:          a.Name,
		DueAt:          a.DueAt,
		PointsPossible: a.PointsPossible,
		URL:            a.HTMLURL,
		Depth:          item.Depth,
		Body:           a.Description,
		FilePath:       fmt.Sprintf("assignments/%d.html", a.ID),
	}, nil
}
