// Package metrics exposes Prometheus counters for the report pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "powerroof_"

	ResultSuccess = "success"
	ResultError   = "error"

	ImageryReal        = "real"
	ImagerySkipped     = "skipped"
	ImageryPlaceholder = "placeholder"
)

var (
	registerOnce sync.Once

	priceUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "price_upserts_total",
			Help: "Total wholesale price upserts by result",
		},
		[]string{"result"},
	)
	statisticsFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metricPrefix + "price_statistics_fallback_total",
			Help: "Total statistics requests answered with fallback values",
		},
	)

	dossierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "dossier_generate_total",
			Help: "Total dossier generations by tier and result",
		},
		[]string{"tier", "result"},
	)
	dossierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "dossier_generate_latency_seconds",
			Help:    "Dossier generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	imageryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "imagery_fetch_total",
			Help: "Total satellite imagery attempts by outcome",
		},
		[]string{"outcome"},
	)

	renderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "render_total",
			Help: "Total rendered documents by format and result",
		},
		[]string{"format", "result"},
	)
)

// Init registers the collectors with the default registry. It is safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			priceUpserts,
			statisticsFallbacks,
			dossierTotal,
			dossierLatency,
			imageryTotal,
			renderTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObservePriceUpsert counts one price upsert.
func ObservePriceUpsert(err error) {
	priceUpserts.WithLabelValues(result(err)).Inc()
}

// IncStatisticsFallback counts a statistics request served from defaults.
func IncStatisticsFallback() {
	statisticsFallbacks.Inc()
}

// ObserveDossier records one dossier generation.
func ObserveDossier(tier string, err error, duration time.Duration) {
	if tier == "" {
		tier = "unknown"
	}
	dossierTotal.WithLabelValues(tier, result(err)).Inc()
	dossierLatency.WithLabelValues(tier).Observe(duration.Seconds())
}

// IncImagery counts a satellite imagery attempt by outcome.
func IncImagery(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	imageryTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender counts one rendered document.
func ObserveRender(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	renderTotal.WithLabelValues(format, result(err)).Inc()
}
