package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ZoomUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_zoom_updates_total",
		Help: "Total number of visibility recomputations triggered by camera events",
	})
	ForcedRendersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_forced_renders_total",
		Help: "Total number of settle-burst frames issued after gestures",
	})
	RenderFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_render_failures_total",
		Help: "Total number of settle-burst frames whose render callback failed",
	})
	BuildingsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_buildings_skipped_total",
		Help: "Total number of buildings skipped because their geometry could not be built",
	})
	CoordinateCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_coordinate_cache_hits_total",
		Help: "Total geodetic to world conversions served from cache",
	})
	CoordinateCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_coordinate_cache_misses_total",
		Help: "Total geodetic to world conversions that invoked the projection",
	})
	DataUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estate_data_unavailable_total",
		Help: "Total project loads that fell back to the default data set",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "estate_active_sessions",
		Help: "Number of connected viewer sessions",
	})
	IntentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estate_intent_duration_seconds",
		Help:    "Time spent handling one client intent",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"intent"})
)

func init() {
	prometheus.MustRegister(
		ZoomUpdatesTotal,
		ForcedRendersTotal,
		RenderFailuresTotal,
		BuildingsSkippedTotal,
		CoordinateCacheHitsTotal,
		CoordinateCacheMissesTotal,
		DataUnavailableTotal,
		ActiveSessions,
		IntentDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
