// Package metrics defines the Prometheus instruments for a crawl run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the crawl counters. All increment helpers are nil-safe so
// callers can run without instrumentation.
type Metrics struct {
	ItemsProcessed   *prometheus.CounterVec
	ItemsFailed      *prometheus.CounterVec
	EnqueueRejected  prometheus.Counter
	LinksDiscovered  *prometheus.CounterVec
	ArchiveMembers   prometheus.Counter
	ArchiveSkipped   prometheus.Counter
	ArchiveTruncated prometheus.Counter
}

// New registers the crawl counters against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawl_items_processed_total",
			Help: "Work items successfully handled, by content type.",
		}, []string{"content_type"}),
		ItemsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawl_items_failed_total",
			Help: "Work items that failed during fetch, parse or save.",
		}, []string{"content_type"}),
		EnqueueRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawl_enqueue_rejected_total",
			Help: "Enqueue attempts rejected for lacking a registered handler.",
		}),
		LinksDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawl_links_discovered_total",
			Help: "Hyperlinks discovered in record bodies, by kind.",
		}, []string{"kind"}),
		ArchiveMembers: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawl_archive_members_extracted_total",
			Help: "Archive members extracted and cloned.",
		}),
		ArchiveSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawl_archive_members_skipped_total",
			Help: "Archive members skipped for unsafe paths or copy errors.",
		}),
		ArchiveTruncated: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawl_archive_truncations_total",
			Help: "Archive expansions truncated by depth, member or byte limits.",
		}),
	}
}

// IncProcessed counts a successfully handled item.
func (m *Metrics) IncProcessed(contentType string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.WithLabelValues(contentType).Inc()
}

// IncFailed counts a failed item.
func (m *Metrics) IncFailed(contentType string) {
	if m == nil {
		return
	}
	m.ItemsFailed.WithLabelValues(contentType).Inc()
}

// IncRejected counts a gated enqueue rejection.
func (m *Metrics) IncRejected() {
	if m == nil {
		return
	}
	m.EnqueueRejected.Inc()
}

// IncLink counts a discovered link; kind is "internal" or "external".
func (m *Metrics) IncLink(kind string) {
	if m == nil {
		return
	}
	m.LinksDiscovered.WithLabelValues(kind).Inc()
}

// IncArchiveMember counts an extracted archive member.
func (m *Metrics) IncArchiveMember() {
	if m == nil {
		return
	}
	m.ArchiveMembers.Inc()
}

// IncArchiveSkipped counts a skipped archive member.
func (m *Metrics) IncArchiveSkipped() {
	if m == nil {
		return
	}
	m.ArchiveSkipped.Inc()
}

// IncArchiveTruncated counts a truncated archive expansion.
func (m *Metrics) IncArchiveTruncated() {
	if m == nil {
		return
	}
	m.ArchiveTruncated.Inc()
}
