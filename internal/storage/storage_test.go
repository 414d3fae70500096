package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

func newTestManager(t *testing.T) (*Manager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	m, err := NewManager(fs, Config{BaseDir: "out"}, nil, zap.NewNop())
	require.NoError(t, err)
	return m, fs
}

func TestNewManagerRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewManager(afero.NewMemMapFs(), Config{}, nil, zap.NewNop())
	require.Error(t, err)
}

func TestJSONFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "modules.json", JSONFileName(&crawler.Record{Type: "modules"}))
	assert.Equal(t, "page_intro.json", JSONFileName(&crawler.Record{Type: "page", ID: "intro"}))
	assert.Equal(t, "assignment_42.json", JSONFileName(&crawler.Record{Type: "assignment", ID: int64(42)}))
}

func TestWriteJSONIsIdempotent(t *testing.T) {
	t.Parallel()

	m, fs := newTestManager(t)
	rec := &crawler.Record{Type: "page", ID: "intro", Title: "Intro", Depth: 2}

	rel, err := m.WriteJSON(rec)
	require.NoError(t, err)
	assert.Equal(t, "json_output/page_intro.json", rel)

	first, err := afero.ReadFile(fs, "out/json_output/page_intro.json")
	require.NoError(t, err)

	_, err = m.WriteJSON(rec)
	require.NoError(t, err)
	second, err := afero.ReadFile(fs, "out/json_output/page_intro.json")
	require.NoError(t, err)
	assert.Equal(t, first, second, "rewriting an unchanged record is byte-identical")

	assert.Contains(t, string(first), `"type": "page"`)
	assert.Contains(t, string(first), `"id": "intro"`)
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	m, fs := newTestManager(t)
	require.NoError(t, m.WriteHTML("<h1>Intro</h1>", "pages/intro.html"))

	body, err := afero.ReadFile(fs, "out/pages/intro.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Intro</h1>", string(body))
}

func TestDownloadFileStreamsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("binary-bytes"))
	}))
	defer srv.Close()

	m, fs := newTestManager(t)
	require.NoError(t, m.DownloadFile(context.Background(), srv.URL, "files/311.pdf"))

	body, err := afero.ReadFile(fs, "out/files/311.pdf")
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(body))
}

func TestDownloadFileRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	m, _ := newTestManager(t)
	err := m.DownloadFile(context.Background(), srv.URL, "files/404.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
