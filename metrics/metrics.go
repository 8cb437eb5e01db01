// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or go out of the system: requests, files, tests, api calls.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ObjectCount tracks the live object count per kind (link/addr/route/neigh).
	ObjectCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netstack_object_count",
			Help: "Number of currently tracked objects, by kind.",
		},
		[]string{"kind"})

	// EventCount tracks the lifetime count of decoded events, by kind.
	EventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netstack_event_total",
			Help: "Number of decoded rtnetlink events, by kind.",
		},
		[]string{"kind"})

	// LookupOutcomeCount tracks the outcome of link lookups. Only
	// Netstack.ShareLink (share, failure) and Netstack.ShareLinkHandle (share)
	// record to it; copies and by-name, address and neighbor lookups do not.
	LookupOutcomeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netstack_lookup_total",
			Help: "Number of ShareLink/ShareLinkHandle lookups, by outcome (share, failure).",
		},
		[]string{"outcome"})

	// NetlinkErrorCount tracks netlink-level protocol errors (NLMSG_ERROR,
	// malformed/short messages), the same role as the teacher's ErrorCount.
	NetlinkErrorCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netstack_netlink_errors_total",
			Help: "Number of netlink protocol errors encountered.",
		},
	)

	// CallbackCount tracks the lifetime count of user callback invocations.
	CallbackCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netstack_callbacks_total",
			Help: "Number of user callback invocations.",
		},
	)

	// DumpLatencyHistogram tracks the latency of every dump request (initial
	// or Refresh) per kind, the same role as the teacher's SyscallTimeHistogram.
	DumpLatencyHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "netstack_dump_latency_seconds",
			Help: "Dump latency distribution (seconds), by kind.",
			Buckets: []float64{
				0.001, 0.00125, 0.0016, 0.002, 0.0025, 0.0032, 0.004, 0.005, 0.0063, 0.0079,
				0.01, 0.0125, 0.016, 0.02, 0.025, 0.032, 0.04, 0.05, 0.063, 0.079,
				0.1, 0.125, 0.16, 0.2,
			},
		},
		[]string{"kind"})
)

// PublishStats copies a store.Stats snapshot into the gauge/counter series
// above. Callers pass four ints (one per kind) rather than importing store
// here, keeping metrics free of a dependency cycle with store.
func PublishStats(links, addrs, routes, neighs int64) {
	ObjectCount.WithLabelValues("link").Set(float64(links))
	ObjectCount.WithLabelValues("addr").Set(float64(addrs))
	ObjectCount.WithLabelValues("route").Set(float64(routes))
	ObjectCount.WithLabelValues("neigh").Set(float64(neighs))
}

// init() prints a log message to let the user know that the package has been
// loaded and the metrics registered. The metrics are auto-registered, which
// means they are registered as soon as this package is loaded, and the exact
// time this occurs (and whether this occurs at all in a given context) can be
// opaque.
func init() {
	log.Println("Prometheus metrics in netstack.metrics are registered.")
}
