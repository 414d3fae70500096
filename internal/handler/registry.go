package handler

import (
	"fmt"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// Registry is the immutable mapping from content-type name to handler. It is
// built once at startup; the set of dispatchable types is closed.
type Registry struct {
	handlers map[string]crawler.ContentHandler
}

// NewRegistry wires every handler variant with the shared dependencies.
func NewRegistry(deps Deps) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("handler registry: %w", err)
	}

	b := base{storage: deps.Storage, logger: deps.Logger}
	wrap := func(ops operations) crawler.ContentHandler {
		return contentHandler{ops: ops, logger: deps.Logger}
	}

	return &Registry{handlers: map[string]crawler.ContentHandler{
		crawler.TypeSyllabus:      wrap(&syllabusHandler{base: b, client: deps.Client}),
		crawler.TypeModules:       wrap(&modulesHandler{base: b, client: deps.Client}),
		crawler.TypeModule:        wrap(&moduleHandler{base: b, client: deps.Client}),
		crawler.TypeAssignments:   wrap(&assignmentsHandler{base: b, client: deps.Client}),
		crawler.TypeAssignment:    wrap(&assignmentHandler{base: b, client: deps.Client, logger: deps.Logger}),
		crawler.TypePages:         wrap(&pagesHandler{base: b, client: deps.Client}),
		crawler.TypePage:          wrap(&pageHandler{base: b, client: deps.Client}),
		crawler.TypeAnnouncements: wrap(&announcementsHandler{base: b, client: deps.Client}),
		crawler.TypeAnnouncement:  wrap(&announcementHandler{base: b, client: deps.Client}),
		crawler.TypeDiscussion:    wrap(&discussionHandler{base: b, client: deps.Client}),
		crawler.TypeQuiz:          wrap(&classicQuizHandler{base: b, client: deps.Client}),
		crawler.TypeNewQuiz:       wrap(&newQuizHandler{base: b, client: deps.Client}),
		crawler.TypeFile:          wrap(&fileHandler{storage: deps.Storage, client: deps.Client, logger: deps.Logger}),
		crawler.TypeExternalLink:  wrap(&externalLinkHandler{base: b, web: deps.Web, hasher: deps.Hasher}),
	}}, nil
}

// Has reports whether contentType is dispatchable. Callers gate enqueue on
// this before an item ever enters the queue.
func (r *Registry) Has(contentType string) bool {
	_, ok := r.handlers[contentType]
	return ok
}

// Get returns the handler for contentType, or an error for unknown types.
func (r *Registry) Get(contentType string) (crawler.ContentHandler, error) {
	h, ok := r.handlers[contentType]
	if !ok {
		return nil, fmt.Errorf("no handler for content type %q", contentType)
	}
	return h, nil
}
