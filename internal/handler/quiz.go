package handler

import (
	"context"
	"fmt"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/crawler"
)

// newQuizHandler persists a New Quiz. The payload has no html_url, so the
// display URL is composed from the server URL, course and quiz id.
type newQuizHandler struct {
	base
	client crawler.CanvasClient
}

func (h *newQuizHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	quizID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetNewQuiz(ctx, item.CourseID, quizID)
}

func (h *newQuizHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	q, ok := raw.(*canvas.NewQuiz)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}

	var timeLimit *float64
	if secs := q.QuizSettings.SessionTimeLimitInSeconds; secs != nil {
		v := float64(*secs)
		timeLimit = &v
	}

	return &crawler.Record{
		Type:            crawler.TypeNewQuiz,
		ID:              q.ID,
		Title:           q.Title,
		DueAt:           q.DueAt,
		PointsPossible:  q.PointsPossible,
		AllowedAttempts: q.QuizSettings.MultipleAttempts.MaxAttempts,
		ScoringPolicy:   q.GradingType,
		TimeLimit:       timeLimit,
		URL:             fmt.Sprintf("%s/courses/%s/quizzes/%d", h.client.ServerURL(), item.CourseID, q.ID),
		Depth:           item.Depth,
		Body:            q.Instructions,
		FilePath:        fmt.Sprintf("new_quizzes/%d.html", q.ID),
	}, nil
}

// classicQuizHandler persists a classic quiz. The record's type field carries
// the quiz's own quiz_type, since classic quizzes have sub-variants.
type classicQuizHandler struct {
	base
	client crawler.CanvasClient
}

func (h *classicQuizHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	quizID, err := numericItemID(item)
	if err != nil {
		return nil, err
	}
	return h.client.GetClassicQuiz(ctx, item.CourseID, quizID)
}

func (h *classicQuizHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	q, ok := raw.(*canvas.ClassicQuiz)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}
	recordType := q.QuizType
	if recordType == "" {
		recordType = crawler.TypeQuiz
	}
	return &crawler.Record{
		Type:            recordType,
		ID:              q.ID,
		Title:           q.Title,
		DueAt:           q.DueAt,
		PointsPossible:  q.PointsPossible,
		AllowedAttempts: q.AllowedAttempts,
		ScoringPolicy:   q.ScoringPolicy,
		QuestionCount:   q.QuestionCount,
		TimeLimit:       q.TimeLimit,
		URL:             q.HTMLURL,
		Depth:           item.Depth,
		Body:            q.Description,
		FilePath:        fmt.Sprintf("quizzes/%d.html", q.ID),
	}, nil
}
