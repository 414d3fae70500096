package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret-token", 5*time.Second, zap.NewNop())
}

func TestClientSendsAuthAndPagination(t *testing.T) {
	t.Parallel()

	var gotAuth, gotAccept, gotPerPage string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPerPage = r.URL.Query().Get("per_page")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetModules(context.Background(), "5")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "100", gotPerPage)
}

func TestGetCourseIncludesSyllabus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/5", r.URL.Path)
		assert.Equal(t, "syllabus_body", r.URL.Query().Get("include[]"))
		_, _ = w.Write([]byte(`{"id":5,"name":"Intro","syllabus_body":"<h1>Hi</h1>"}`))
	})

	course, err := client.GetCourse(context.Background(), "5", true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), course.ID)
	assert.Equal(t, "<h1>Hi</h1>", course.SyllabusBody)
}

func TestGetModuleItemsRequestsContentDetails(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/5/modules/3/items", r.URL.Path)
		assert.Equal(t, "content_details", r.URL.Query().Get("include[]"))
		_, _ = w.Write([]byte(`[{"id":10,"type":"Assignment","content_id":77,"quiz_lti":true}]`))
	})

	items, err := client.GetModuleItems(context.Background(), "5", 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(77), items[0].ContentID)
	assert.True(t, items[0].QuizLTI)
}

func TestGetNewQuizUsesQuizAPIPrefix(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quiz/v1/courses/5/quizzes/9", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 9,
			"title": "Unit Quiz",
			"quiz_settings": {
				"multiple_attempts": {"multiple_attempts_enabled": true, "max_attempts": 3},
				"session_time_limit_in_seconds": 3600
			}
		}`))
	})

	quiz, err := client.GetNewQuiz(context.Background(), "5", 9)
	require.NoError(t, err)
	assert.Equal(t, "Unit Quiz", quiz.Title)
	require.NotNil(t, quiz.QuizSettings.MultipleAttempts.MaxAttempts)
	assert.Equal(t, 3, *quiz.QuizSettings.MultipleAttempts.MaxAttempts)
	require.NotNil(t, quiz.QuizSettings.SessionTimeLimitInSeconds)
	assert.Equal(t, 3600, *quiz.QuizSettings.SessionTimeLimitInSeconds)
}

func TestGetWikiPageEscapesSlug(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/5/pages/week%201", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"page_id":88,"url":"week 1","title":"Week 1"}`))
	})

	page, err := client.GetWikiPage(context.Background(), "5", "week 1")
	require.NoError(t, err)
	assert.Equal(t, int64(88), page.PageID)
}

func TestGetFileDecodesHyphenatedContentType(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/5/files/311", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 311,
			"display_name": "Notes",
			"filename": "notes.pdf",
			"content-type": "application/pdf",
			"url": "https://files.example/311",
			"locked_for_user": true,
			"lock_explanation": "not yet"
		}`))
	})

	file, err := client.GetFile(context.Background(), "5", 311)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)

	locked, reason := file.LockState()
	assert.True(t, locked)
	assert.Equal(t, "not yet", reason)
}

func TestGetAnnouncementsFiltersTopics(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/5/discussion_topics", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("only_announcements"))
		_, _ = w.Write([]byte(`[{"id":12,"title":"Welcome"}]`))
	})

	anns, err := client.GetAnnouncements(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, "Welcome", anns[0].Title)
}

func TestClientReturnsAPIErrorOnFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[{"message":"unauthorized"}]}`, http.StatusUnauthorized)
	})

	_, err := client.GetAssignment(context.Background(), "5", 42)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "unauthorized")
	assert.Contains(t, apiErr.Path, "/assignments/42")
}

func TestLockStateFallsBackToUnlockAt(t *testing.T) {
	t.Parallel()

	l := LockInfo{LockedForUser: true, UnlockAt: "2026-09-01T00:00:00Z"}
	locked, reason := l.LockState()
	assert.True(t, locked)
	assert.Equal(t, "2026-09-01T00:00:00Z", reason)

	locked, reason = LockInfo{}.LockState()
	assert.False(t, locked)
	assert.Empty(t, reason)
}
