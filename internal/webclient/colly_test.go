package webclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFetchHTMLSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Hello</title></head></html>"))
	}))
	defer srv.Close()

	client := New("test-agent/1.0", 5*time.Second, zap.NewNop())
	page := client.FetchHTML(context.Background(), srv.URL)

	assert.True(t, page.OK)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Text, "<title>Hello</title>")
	assert.Contains(t, page.ContentType, "text/html")
	assert.Empty(t, page.Error)
}

func TestFetchHTMLReportsErrorStatusInPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := New("test-agent/1.0", 5*time.Second, zap.NewNop())
	page := client.FetchHTML(context.Background(), srv.URL)

	assert.False(t, page.OK)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.NotEmpty(t, page.Error)
}

func TestFetchHTMLUnreachableHost(t *testing.T) {
	t.Parallel()

	client := New("test-agent/1.0", 2*time.Second, zap.NewNop())
	page := client.FetchHTML(context.Background(), "http://127.0.0.1:1/unreachable")

	assert.False(t, page.OK)
	assert.NotEmpty(t, page.Error)
}

func TestFetchHTMLCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New("test-agent/1.0", 2*time.Second, zap.NewNop())
	page := client.FetchHTML(ctx, "http://example.com")

	assert.False(t, page.OK)
	assert.Equal(t, context.Canceled.Error(), page.Error)
}
