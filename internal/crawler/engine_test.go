package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/canvas"
)

// fakeClient returns canned API payloads for structured expansion.
type fakeClient struct {
	modules     []canvas.Module
	moduleItems map[int64][]canvas.ModuleItem
	assignments []canvas.Assignment
}

func (c *fakeClient) GetCourse(context.Context, string, bool) (*canvas.Course, error) {
	return &canvas.Course{}, nil
}

func (c *fakeClient) GetModules(context.Context, string) ([]canvas.Module, error) {
	return c.modules, nil
}

func (c *fakeClient) GetModule(_ context.Context, _ string, id int64) (*canvas.Module, error) {
	for _, m := range c.modules {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("module %d not found", id)
}

func (c *fakeClient) GetModuleItems(_ context.Context, _ string, id int64) ([]canvas.ModuleItem, error) {
	return c.moduleItems[id], nil
}

func (c *fakeClient) GetAssignments(context.Context, string) ([]canvas.Assignment, error) {
	return c.assignments, nil
}

func (c *fakeClient) GetAssignment(context.Context, string, int64) (*canvas.Assignment, error) {
	return &canvas.Assignment{}, nil
}

func (c *fakeClient) GetNewQuiz(context.Context, string, int64) (*canvas.NewQuiz, error) {
	return &canvas.NewQuiz{}, nil
}

func (c *fakeClient) GetClassicQuiz(context.Context, string, int64) (*canvas.ClassicQuiz, error) {
	return &canvas.ClassicQuiz{}, nil
}

func (c *fakeClient) GetWikiPage(context.Context, string, string) (*canvas.Page, error) {
	return &canvas.Page{}, nil
}

func (c *fakeClient) ListPages(context.Context, string) ([]canvas.Page, error) {
	return nil, nil
}

func (c *fakeClient) GetDiscussionTopic(context.Context, string, int64) (*canvas.Discussion, error) {
	return &canvas.Discussion{}, nil
}

func (c *fakeClient) GetFile(context.Context, string, int64) (*canvas.File, error) {
	return &canvas.File{}, nil
}

func (c *fakeClient) GetAnnouncements(context.Context, string) ([]canvas.Discussion, error) {
	return nil, nil
}

func (c *fakeClient) ServerURL() string { return testBaseURL }

// fakeHandler records every dispatched item and replies with a fixed record
// or error.
type fakeHandler struct {
	mu     sync.Mutex
	items  []WorkItem
	record func(item WorkItem) *Record
	err    error
}

func (h *fakeHandler) Run(_ context.Context, item WorkItem) (*Record, error) {
	h.mu.Lock()
	h.items = append(h.items, item)
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	if h.record == nil {
		return &Record{Type: item.ContentType, ID: item.ItemID, Depth: item.Depth}, nil
	}
	return h.record(item), nil
}

func (h *fakeHandler) calls() []WorkItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]WorkItem, len(h.items))
	copy(out, h.items)
	return out
}

// fakeRegistry maps content types to fake handlers.
type fakeRegistry struct {
	handlers map[string]*fakeHandler
}

func newFakeRegistry(types ...string) *fakeRegistry {
	r := &fakeRegistry{handlers: make(map[string]*fakeHandler)}
	for _, ct := range types {
		r.handlers[ct] = &fakeHandler{}
	}
	return r
}

func (r *fakeRegistry) Has(contentType string) bool {
	_, ok := r.handlers[contentType]
	return ok
}

func (r *fakeRegistry) Get(contentType string) (ContentHandler, error) {
	h, ok := r.handlers[contentType]
	if !ok {
		return nil, fmt.Errorf("no handler for %q", contentType)
	}
	return h, nil
}

func newTestEngine(cfg EngineConfig, client CanvasClient, reg HandlerRegistry) *Engine {
	return NewEngine(cfg, client, reg, nil, nil, nil, "run-1", zap.NewNop())
}

func TestEngineWalksModulesToPage(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		modules: []canvas.Module{{ID: 1, Name: "Week 1"}},
		moduleItems: map[int64][]canvas.ModuleItem{
			1: {
				{ID: 10, Type: "Page", PageURL: "intro"},
				{ID: 11, Type: "SubHeader", Title: "Readings"},
			},
		},
	}
	reg := newFakeRegistry(TypeModules, TypeModule, TypePage)

	engine := newTestEngine(EngineConfig{
		CourseID:   "5",
		DepthLimit: 10,
		SeedTypes:  []string{TypeModules},
	}, client, reg)

	require.NoError(t, engine.Run(context.Background()))

	pageCalls := reg.handlers[TypePage].calls()
	require.Len(t, pageCalls, 1)
	assert.Equal(t, "intro", pageCalls[0].ItemID)
	assert.Equal(t, 2, pageCalls[0].Depth)

	moduleCalls := reg.handlers[TypeModule].calls()
	require.Len(t, moduleCalls, 1)
	assert.Equal(t, int64(1), moduleCalls[0].ItemID)
}

func TestEngineDeduplicatesByTypeAndID(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		modules: []canvas.Module{{ID: 1}, {ID: 2}},
		moduleItems: map[int64][]canvas.ModuleItem{
			1: {{ID: 10, Type: "Page", PageURL: "intro"}},
			2: {{ID: 20, Type: "Page", PageURL: "intro"}},
		},
	}
	reg := newFakeRegistry(TypeModules, TypeModule, TypePage)

	engine := newTestEngine(EngineConfig{
		CourseID:   "5",
		DepthLimit: 10,
		SeedTypes:  []string{TypeModules},
	}, client, reg)

	require.NoError(t, engine.Run(context.Background()))
	assert.Len(t, reg.handlers[TypePage].calls(), 1)
}

func TestEngineHonorsDepthLimit(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		modules: []canvas.Module{{ID: 1}},
		moduleItems: map[int64][]canvas.ModuleItem{
			1: {{ID: 10, Type: "Page", PageURL: "intro"}},
		},
	}
	reg := newFakeRegistry(TypeModules, TypeModule, TypePage)

	engine := newTestEngine(EngineConfig{
		CourseID:   "5",
		DepthLimit: 1,
		SeedTypes:  []string{TypeModules},
	}, client, reg)

	require.NoError(t, engine.Run(context.Background()))

	assert.Len(t, reg.handlers[TypeModule].calls(), 1, "module sits at depth 1")
	assert.Empty(t, reg.handlers[TypePage].calls(), "page sits beyond the depth limit")
}

func TestEngineRejectsUnregisteredEnqueue(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(TypeModules)
	engine := newTestEngine(EngineConfig{CourseID: "5", DepthLimit: 3}, &fakeClient{}, reg)

	ok := engine.Enqueue(WorkItem{ContentType: "wiki", CourseID: "5"})
	assert.False(t, ok)
	assert.Zero(t, engine.QueueLen())

	ok = engine.Enqueue(WorkItem{ContentType: TypeModules, CourseID: "5"})
	assert.True(t, ok)
	assert.Equal(t, 1, engine.QueueLen())
}

func TestEngineRoutesQuizLTIItemsToNewQuiz(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		modules: []canvas.Module{{ID: 1}},
		moduleItems: map[int64][]canvas.ModuleItem{
			1: {{ID: 10, Type: "Assignment", ContentID: 77, QuizLTI: true}},
		},
	}
	reg := newFakeRegistry(TypeModules, TypeModule, TypeAssignment, TypeNewQuiz)

	engine := newTestEngine(EngineConfig{
		CourseID:   "5",
		DepthLimit: 10,
		SeedTypes:  []string{TypeModules},
	}, client, reg)

	require.NoError(t, engine.Run(context.Background()))

	newQuizCalls := reg.handlers[TypeNewQuiz].calls()
	require.Len(t, newQuizCalls, 1)
	assert.Equal(t, int64(77), newQuizCalls[0].ItemID)
	assert.Empty(t, reg.handlers[TypeAssignment].calls())
}

func TestEngineDoesNotExpandLockedRecords(t *testing.T) {
	t.Parallel()

	client := &fakeClient{modules: []canvas.Module{}}
	reg := newFakeRegistry(TypeModules, TypePage)
	reg.handlers[TypePage].record = func(item WorkItem) *Record {
		return &Record{
			Type:          TypePage,
			ID:            item.ItemID,
			Depth:         item.Depth,
			LockedForUser: true,
			Body:          "",
		}
	}

	engine := newTestEngine(EngineConfig{CourseID: "5", DepthLimit: 10}, client, reg)
	engine.Enqueue(WorkItem{ContentType: TypePage, CourseID: "5", ItemID: "gated", Depth: 0})
	require.NoError(t, engine.Run(context.Background()))

	assert.Len(t, reg.handlers[TypePage].calls(), 1)
	assert.Zero(t, engine.QueueLen())
}

func TestEngineExpandsBodyLinks(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	reg := newFakeRegistry(TypePage, TypeAssignment, TypeExternalLink)
	reg.handlers[TypePage].record = func(item WorkItem) *Record {
		return &Record{
			Type:  TypePage,
			ID:    item.ItemID,
			Depth: item.Depth,
			Body: `<p><a href="/courses/5/assignments/42">HW</a>
				<a href="https://example.com/reading">Reading</a></p>`,
		}
	}

	engine := newTestEngine(EngineConfig{CourseID: "5", DepthLimit: 10}, client, reg)
	engine.Enqueue(WorkItem{ContentType: TypePage, CourseID: "5", ItemID: "intro", Depth: 0})
	require.NoError(t, engine.Run(context.Background()))

	assignCalls := reg.handlers[TypeAssignment].calls()
	require.Len(t, assignCalls, 1)
	assert.Equal(t, int64(42), assignCalls[0].ItemID)
	assert.Equal(t, 1, assignCalls[0].Depth)

	extCalls := reg.handlers[TypeExternalLink].calls()
	require.Len(t, extCalls, 1)
	assert.Equal(t, "https://example.com/reading", extCalls[0].ItemID)
}

func TestEngineTreatsExternalLinksAsLeaves(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	reg := newFakeRegistry(TypeExternalLink, TypeAssignment)
	reg.handlers[TypeExternalLink].record = func(item WorkItem) *Record {
		return &Record{
			Type:  TypeExternalLink,
			ID:    "abc123",
			Depth: item.Depth,
			Body:  `<a href="/courses/5/assignments/42">looks internal</a>`,
		}
	}

	engine := newTestEngine(EngineConfig{CourseID: "5", DepthLimit: 10}, client, reg)
	engine.Enqueue(WorkItem{
		ContentType: TypeExternalLink,
		CourseID:    "5",
		ItemID:      "https://example.com",
		Depth:       0,
	})
	require.NoError(t, engine.Run(context.Background()))

	assert.Empty(t, reg.handlers[TypeAssignment].calls())
}

func TestEngineAbsorbsHandlerFailures(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		modules: []canvas.Module{{ID: 1}},
		moduleItems: map[int64][]canvas.ModuleItem{
			1: {{ID: 10, Type: "Page", PageURL: "intro"}},
		},
	}
	reg := newFakeRegistry(TypeModules, TypeModule, TypePage)
	reg.handlers[TypeModule].err = errors.New("canvas 500")

	engine := newTestEngine(EngineConfig{
		CourseID:   "5",
		DepthLimit: 10,
		SeedTypes:  []string{TypeModules},
	}, client, reg)

	require.NoError(t, engine.Run(context.Background()))

	// The failed module is not expanded, but the run itself succeeds.
	assert.Empty(t, reg.handlers[TypePage].calls())
	assert.Len(t, reg.handlers[TypeModule].calls(), 1)
}

func TestEngineRecordsLedgerAndPublishes(t *testing.T) {
	t.Parallel()

	var (
		entries  []ArtifactEntry
		payloads []any
	)
	ledger := ledgerFunc(func(_ context.Context, entry ArtifactEntry) error {
		entries = append(entries, entry)
		return nil
	})
	pub := publisherFunc(func(_ context.Context, topic string, payload any) (string, error) {
		payloads = append(payloads, payload)
		return "msg-1", nil
	})

	reg := newFakeRegistry(TypePage)
	reg.handlers[TypePage].record = func(item WorkItem) *Record {
		return &Record{Type: TypePage, ID: item.ItemID, Title: "Intro", Depth: item.Depth}
	}

	engine := NewEngine(
		EngineConfig{CourseID: "5", DepthLimit: 3, Topic: "crawl-artifacts"},
		&fakeClient{},
		reg,
		nil,
		ledger,
		pub,
		"run-42",
		zap.NewNop(),
	)
	engine.Enqueue(WorkItem{ContentType: TypePage, CourseID: "5", ItemID: "intro", Depth: 0})
	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, entries, 1)
	assert.Equal(t, "run-42", entries[0].RunID)
	assert.Equal(t, TypePage, entries[0].ContentType)
	assert.Equal(t, "intro", entries[0].ItemID)
	require.Len(t, payloads, 1)
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(TypeModules)
	engine := newTestEngine(EngineConfig{CourseID: "5", DepthLimit: 3, SeedTypes: []string{TypeModules}}, &fakeClient{}, reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reg.handlers[TypeModules].calls())
}

type ledgerFunc func(ctx context.Context, entry ArtifactEntry) error

func (f ledgerFunc) RecordArtifact(ctx context.Context, entry ArtifactEntry) error {
	return f(ctx, entry)
}

type publisherFunc func(ctx context.Context, topic string, payload any) (string, error)

func (f publisherFunc) Publish(ctx context.Context, topic string, payload any) (string, error) {
	return f(ctx, topic, payload)
}
