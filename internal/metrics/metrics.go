package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for name claims that were not registered.
const (
	SkipReasonNotEligible = "not_eligible"
	SkipReasonInvalid     = "invalid"
	SkipReasonDuplicate   = "duplicate"
)

var (
	// Indexer
	CurrentBlockHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "btcname",
		Subsystem: "indexer",
		Name:      "current_block_height",
		Help:      "Latest processed block height",
	}, []string{"processor"})

	ReorgsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcname",
		Subsystem: "indexer",
		Name:      "reorgs_total",
		Help:      "Total chain reorganizations handled",
	}, []string{"processor"})

	// Processor
	BlocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcname",
		Subsystem: "processor",
		Name:      "blocks_processed_total",
		Help:      "Total blocks processed",
	}, []string{"module"})

	BlockProcessLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "btcname",
		Subsystem: "processor",
		Name:      "block_duration_seconds",
		Help:      "Block processing duration including the database transaction",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"module"})

	// Registrar
	NamesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcname",
		Subsystem: "registrar",
		Name:      "names_registered_total",
		Help:      "Total names bound to an inscription",
	}, []string{"mode", "kind"})

	ClaimsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcname",
		Subsystem: "registrar",
		Name:      "claims_skipped_total",
		Help:      "Total inscription events that did not register a name",
	}, []string{"mode", "reason"})

	// API
	NameCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "btcname",
		Subsystem: "api",
		Name:      "name_cache_lookups_total",
		Help:      "Name lookups served by the API, partitioned by cache result",
	}, []string{"result"})
)
