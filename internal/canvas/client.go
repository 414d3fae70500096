package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiPrefix     = "/api/v1"
	newQuizPrefix = "/api/quiz/v1"
	perPage       = "100"
)

// Client calls the Canvas REST API with bearer-token auth.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a Client for the given Canvas instance. baseURL is the server
// root without the /api/v1 suffix.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ServerURL returns the Canvas server root, used as the base URL for link
// classification.
func (c *Client) ServerURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, apiPath string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if query.Get("per_page") == "" {
		query.Set("per_page", perPage)
	}
	target := c.baseURL + apiPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", apiPath, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", apiPath, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Path: apiPath, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", apiPath, err)
	}
	return nil
}

// GetCourse fetches the course detail, optionally including the syllabus body.
func (c *Client) GetCourse(ctx context.Context, courseID string, includeSyllabus bool) (*Course, error) {
	q := url.Values{}
	if includeSyllabus {
		q.Add("include[]", "syllabus_body")
	}
	var course Course
	if err := c.get(ctx, apiPrefix+"/courses/"+courseID, q, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetModules lists the course's modules.
func (c *Client) GetModules(ctx context.Context, courseID string) ([]Module, error) {
	var modules []Module
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/modules", apiPrefix, courseID), nil, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// GetModule fetches a single module.
func (c *Client) GetModule(ctx context.Context, courseID string, moduleID int64) (*Module, error) {
	var module Module
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/modules/%d", apiPrefix, courseID, moduleID), nil, &module); err != nil {
		return nil, err
	}
	return &module, nil
}

// GetModuleItems lists a module's ordered items, including content details so
// quiz_lti markers are present.
func (c *Client) GetModuleItems(ctx context.Context, courseID string, moduleID int64) ([]ModuleItem, error) {
	q := url.Values{}
	q.Add("include[]", "content_details")
	var items []ModuleItem
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/modules/%d/items", apiPrefix, courseID, moduleID), q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetAssignments lists the course's assignments.
func (c *Client) GetAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	var assignments []Assignment
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/assignments", apiPrefix, courseID), nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetAssignment fetches a single assignment.
func (c *Client) GetAssignment(ctx context.Context, courseID string, assignmentID int64) (*Assignment, error) {
	var assignment Assignment
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/assignments/%d", apiPrefix, courseID, assignmentID), nil, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GetNewQuiz fetches a quiz from the New Quizzes API, which lives under its
// own /api/quiz/v1 prefix.
func (c *Client) GetNewQuiz(ctx context.Context, courseID string, quizID int64) (*NewQuiz, error) {
	var quiz NewQuiz
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/quizzes/%d", newQuizPrefix, courseID, quizID), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetClassicQuiz fetches a classic quiz.
func (c *Client) GetClassicQuiz(ctx context.Context, courseID string, quizID int64) (*ClassicQuiz, error) {
	var quiz ClassicQuiz
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/quizzes/%d", apiPrefix, courseID, quizID), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetWikiPage fetches a wiki page by its slug.
func (c *Client) GetWikiPage(ctx context.Context, courseID, slug string) (*Page, error) {
	var page Page
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/pages/%s", apiPrefix, courseID, url.PathEscape(slug)), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages lists the course's wiki pages.
func (c *Client) ListPages(ctx context.Context, courseID string) ([]Page, error) {
	var pages []Page
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/pages", apiPrefix, courseID), nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetDiscussionTopic fetches a discussion topic or announcement.
func (c *Client) GetDiscussionTopic(ctx context.Context, courseID string, topicID int64) (*Discussion, error) {
	var topic Discussion
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/discussion_topics/%d", apiPrefix, courseID, topicID), nil, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

// GetFile fetches file metadata, including the signed download URL.
func (c *Client) GetFile(ctx context.Context, courseID string, fileID int64) (*File, error) {
	var file File
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/files/%d", apiPrefix, courseID, fileID), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// GetAnnouncements lists the course's announcements.
func (c *Client) GetAnnouncements(ctx context.Context, courseID string) ([]Discussion, error) {
	q := url.Values{}
	q.Set("only_announcements", "true")
	var announcements []Discussion
	if err := c.get(ctx, fmt.Sprintf("%s/courses/%s/discussion_topics", apiPrefix, courseID), q, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}
