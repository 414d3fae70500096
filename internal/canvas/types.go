// Package canvas provides a typed client for the Canvas LMS REST API.
package canvas

import "fmt"

// LockInfo is the lock state Canvas attaches to gated resources.
// Types that embed it satisfy the locked-content check in the handler layer.
type LockInfo struct {
	LockedForUser   bool   `json:"locked_for_user"`
	LockExplanation string `json:"lock_explanation"`
	UnlockAt        string `json:"unlock_at"`
}

// LockState reports whether the resource is locked for the current user and
// the best available explanation (falling back to the unlock time).
func (l LockInfo) LockState() (bool, string) {
	if !l.LockedForUser {
		return false, ""
	}
	reason := l.LockExplanation
	if reason == "" {
		reason = l.UnlockAt
	}
	return true, reason
}

// Course is the course detail payload; syllabus_body is present only when
// requested with include[]=syllabus_body.
type Course struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SyllabusBody string `json:"syllabus_body"`
}

// Module is one entry from the course module list.
type Module struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	ItemsCount int    `json:"items_count"`
}

// ModuleItem is one entry in a module's ordered item list. Type is one of
// Canvas's item type tags (Page, Assignment, Quiz, File, SubHeader,
// ExternalUrl, ExternalTool, ...).
type ModuleItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	ContentID   int64  `json:"content_id"`
	PageURL     string `json:"page_url"`
	ExternalURL string `json:"external_url"`
	URL         string `json:"url"`
	HTMLURL     string `json:"html_url"`
	QuizLTI     bool   `json:"quiz_lti"`
}

// Assignment is the assignment detail payload. QuizLTI marks "New Quiz"
// assignments that the Assignments API cannot render.
type Assignment struct {
	LockInfo
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DueAt          string   `json:"due_at"`
	PointsPossible *float64 `json:"points_possible"`
	HTMLURL        string   `json:"html_url"`
	QuizLTI        bool     `json:"quiz_lti"`
}

func (a *Assignment) ResourceID() any       { return a.ID }
func (a *Assignment) ResourceTitle() string { return a.Name }
func (a *Assignment) ResourceURL() string   { return a.HTMLURL }

// MultipleAttempts nests inside QuizSettings.
type MultipleAttempts struct {
	Enabled     bool `json:"multiple_attempts_enabled"`
	MaxAttempts *int `json:"max_attempts"`
}

// QuizSettings carries the nested settings block of a New Quiz.
type QuizSettings struct {
	MultipleAttempts          MultipleAttempts `json:"multiple_attempts"`
	SessionTimeLimitInSeconds *int             `json:"session_time_limit_in_seconds"`
}

// NewQuiz is the payload of the New Quizzes API. It has no html_url of its
// own; callers compose a display URL from the server URL, course and quiz id.
type NewQuiz struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Instructions   string       `json:"instructions"`
	DueAt          string       `json:"due_at"`
	PointsPossible *float64     `json:"points_possible"`
	GradingType    string       `json:"grading_type"`
	QuizSettings   QuizSettings `json:"quiz_settings"`
}

// ClassicQuiz is the classic quizzes payload. QuizType distinguishes the
// sub-variants (practice_quiz, assignment, graded_survey, survey).
type ClassicQuiz struct {
	LockInfo
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	QuizType        string   `json:"quiz_type"`
	Description     string   `json:"description"`
	DueAt           string   `json:"due_at"`
	PointsPossible  *float64 `json:"points_possible"`
	AllowedAttempts *int     `json:"allowed_attempts"`
	ScoringPolicy   string   `json:"scoring_policy"`
	QuestionCount   *int     `json:"question_count"`
	TimeLimit       *float64 `json:"time_limit"`
	HTMLURL         string   `json:"html_url"`
}

func (q *ClassicQuiz) ResourceID() any       { return q.ID }
func (q *ClassicQuiz) ResourceTitle() string { return q.Title }
func (q *ClassicQuiz) ResourceURL() string   { return q.HTMLURL }

// Page is a wiki page. URL is the page slug used for addressing.
type Page struct {
	LockInfo
	PageID  int64  `json:"page_id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

func (p *Page) ResourceID() any       { return p.PageID }
func (p *Page) ResourceTitle() string { return p.Title }
func (p *Page) ResourceURL() string   { return p.HTMLURL }

// Discussion is a discussion topic; announcements share this shape.
type Discussion struct {
	LockInfo
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	HTMLURL string `json:"html_url"`
}

func (d *Discussion) ResourceID() any       { return d.ID }
func (d *Discussion) ResourceTitle() string { return d.Title }
func (d *Discussion) ResourceURL() string   { return d.HTMLURL }

// File is the file detail payload. ContentType uses Canvas's hyphenated key.
type File struct {
	LockInfo
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	ContentType string `json:"content-type"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
}

func (f *File) ResourceID() any       { return f.ID }
func (f *File) ResourceTitle() string { return f.DisplayName }
func (f *File) ResourceURL() string   { return f.URL }

// APIError reports a non-2xx Canvas API response.
type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canvas api %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}
