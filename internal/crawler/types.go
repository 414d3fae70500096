// Package crawler defines the core types and interfaces of the course-content
// traversal engine: work items, normalized records, and the capability
// contracts its collaborators implement.
package crawler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/edtools/canvas-crawler/internal/canvas"
)

// Content type names. The registry is the authority on which of these are
// dispatchable; everything else is rejected at enqueue time.
const (
	TypeSyllabus      = "syllabus"
	TypeModules       = "modules"
	TypeModule        = "module"
	TypeAssignments   = "assignments"
	TypeAssignment    = "assignment"
	TypePages         = "pages"
	TypePage          = "page"
	TypeAnnouncements = "announcements"
	TypeAnnouncement  = "announcement"
	TypeDiscussion    = "discussion"
	TypeQuiz          = "quiz"
	TypeNewQuiz       = "new_quiz"
	TypeFile          = "file"
	TypeExternalLink  = "external_link"
)

// WorkItem is one unit of traversal. ItemID is a numeric Canvas id (int64), a
// page slug or external URL (string), or nil for course-level list items.
type WorkItem struct {
	ContentType string
	CourseID    string
	ItemID      any
	Depth       int
}

// Key returns the dedup key: two items with the same content type and item id
// are the same logical unit of work regardless of discovery path or depth.
func (w WorkItem) Key() string {
	return w.ContentType + "\x00" + fmt.Sprint(w.ItemID)
}

// NumericID coerces an item id into an int64 where possible.
func NumericID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case float64:
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// StringID coerces an item id into a string (slug or URL).
func StringID(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// Record is the normalized JSON record written for every handled item. The
// common subset (type, id, title, url, depth, body, file_path) is always
// meaningful; the remaining fields are variant-specific and omitted when
// unset. Records are immutable once written.
type Record struct {
	Type     string `json:"type"`
	ID       any    `json:"id,omitempty"`
	Course   string `json:"course,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Depth    int    `json:"depth"`
	Body     string `json:"body,omitempty"`
	FilePath string `json:"file_path,omitempty"`

	// List and module summaries.
	Items []any `json:"items,omitempty"`

	// Assignment and quiz fields.
	DueAt           string   `json:"due_at,omitempty"`
	PointsPossible  *float64 `json:"points_possible,omitempty"`
	AllowedAttempts *int     `json:"allowed_attempts,omitempty"`
	ScoringPolicy   string   `json:"scoring_policy,omitempty"`
	QuestionCount   *int     `json:"number_of_questions,omitempty"`
	TimeLimit       *float64 `json:"time_limit,omitempty"`

	// File fields.
	Extension string `json:"extension,omitempty"`

	// Locked-content stub fields. Invariant: LockedForUser implies Body == "".
	LockedForUser   bool   `json:"locked_for_user,omitempty"`
	LockExplanation string `json:"lock_explanation,omitempty"`

	// External-link audit fields.
	FetchOK    *bool  `json:"fetch_ok,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	FetchError string `json:"fetch_error,omitempty"`
	FinalURL   string `json:"final_url,omitempty"`

	// Archive-clone provenance fields.
	MemberPath    string `json:"member_path,omitempty"`
	ParentArchive string `json:"parent_archive,omitempty"`
	ArchiveDepth  int    `json:"archive_depth,omitempty"`
	ContentHash   string `json:"content_hash,omitempty"`
}

// ContentHandler processes one work item end to end: fetch, locked-stub or
// parse, save. A (nil, nil) return means nothing was produced and the engine
// must not expand the item.
type ContentHandler interface {
	Run(ctx context.Context, item WorkItem) (*Record, error)
}

// HandlerRegistry maps content-type names onto handlers. Has gates enqueue;
// Get is a second, defensive check at dequeue time.
type HandlerRegistry interface {
	Has(contentType string) bool
	Get(contentType string) (ContentHandler, error)
}

// CanvasClient is the platform API capability consumed by handlers and the
// engine's structured expansion.
type CanvasClient interface {
	GetCourse(ctx context.Context, courseID string, includeSyllabus bool) (*canvas.Course, error)
	GetModules(ctx context.Context, courseID string) ([]canvas.Module, error)
	GetModule(ctx context.Context, courseID string, moduleID int64) (*canvas.Module, error)
	GetModuleItems(ctx context.Context, courseID string, moduleID int64) ([]canvas.ModuleItem, error)
	GetAssignments(ctx context.Context, courseID string) ([]canvas.Assignment, error)
	GetAssignment(ctx context.Context, courseID string, assignmentID int64) (*canvas.Assignment, error)
	GetNewQuiz(ctx context.Context, courseID string, quizID int64) (*canvas.NewQuiz, error)
	GetClassicQuiz(ctx context.Context, courseID string, quizID int64) (*canvas.ClassicQuiz, error)
	GetWikiPage(ctx context.Context, courseID, slug string) (*canvas.Page, error)
	ListPages(ctx context.Context, courseID string) ([]canvas.Page, error)
	GetDiscussionTopic(ctx context.Context, courseID string, topicID int64) (*canvas.Discussion, error)
	GetFile(ctx context.Context, courseID string, fileID int64) (*canvas.File, error)
	GetAnnouncements(ctx context.Context, courseID string) ([]canvas.Discussion, error)
	ServerURL() string
}

// WebPage is the result of a one-shot HTML fetch of an external link.
type WebPage struct {
	Text        string
	FinalURL    string
	StatusCode  int
	ContentType string
	OK          bool
	Error       string
}

// WebFetcher fetches arbitrary external URLs. Failures are reported in the
// page itself, never as an error, so a dead link still yields an audit record.
type WebFetcher interface {
	FetchHTML(ctx context.Context, url string) WebPage
}

// Storage persists records and artifacts.
type Storage interface {
	WriteJSON(rec *Record) (string, error)
	WriteHTML(body, relPath string) error
	DownloadFile(ctx context.Context, url, relPath string) error
	ExtractArchive(ctx context.Context, relPath string, parent *Record) error
}

// Hasher computes digests for stable identifiers and integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Publisher announces persisted artifacts to downstream stages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ArtifactEntry is one row of the optional crawl ledger.
type ArtifactEntry struct {
	RunID       string
	ContentType string
	ItemID      any
	Title       string
	URL         string
	FilePath    string
	Depth       int
	Locked      bool
	RetrievedAt time.Time
}

// Ledger records every persisted artifact for auditing.
type Ledger interface {
	RecordArtifact(ctx context.Context, entry ArtifactEntry) error
}
