package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FeedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_feed_events_total", Help: "Change feed events applied by collections"},
		[]string{"table", "type"},
	)
	Refetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_refetch_total", Help: "Full collection refetches triggered by the feed"},
		[]string{"table"},
	)
	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_fetch_failed_total", Help: "Failed collection fetches"},
		[]string{"table"},
	)
	MutationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_mutation_failed_total", Help: "Rejected create/update/delete calls"},
		[]string{"table", "op"},
	)
	PartialFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_partial_failed_total", Help: "Multi-step operations left half done"},
		[]string{"op"},
	)
	OrphanedAssets = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_orphaned_assets_total", Help: "Storage objects left behind by a failed step"},
	)
	PublishedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_outbox_published_total", Help: "Outbox rows published on the change feed"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_dlq_total", Help: "Total events inserted into DLQ"},
	)
	SearchSynced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_search_synced_total", Help: "Documents written to the search index"},
	)
)

func Register() {
	prometheus.MustRegister(
		FeedEvents, Refetches, FetchFailures, MutationFailures, PartialFailures,
		OrphanedAssets, PublishedEvents, DLQEvents, SearchSynced,
	)
}
