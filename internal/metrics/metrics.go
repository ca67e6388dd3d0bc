package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "pages_fetched_total", Help: "Listing page requests by status."},
		[]string{"status"}, // HTTP status code or "error"
	)
	FetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reviews", Name: "fetch_duration_seconds",
			Help:    "Listing page request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	ReviewsDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "reviews", Name: "decoded_total", Help: "Reviews decoded."},
	)
	DecodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviews", Name: "decode_errors_total", Help: "Review fields that failed to decode."},
		[]string{"field"},
	)
)

// InitRegistry returns a registry holding every collector of this package
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PagesFetched, FetchLatency, ReviewsDecoded, DecodeErrors)
	return reg
}

// Handler exposes reg in the Prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve starts a metrics listener on addr in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry, logger *logrus.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.WithField("addr", addr).Info("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
}

// ObserveFetch records one page request. status 0 means the request never got a response.
func ObserveFetch(status int, dur time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	PagesFetched.WithLabelValues(label).Inc()
	FetchLatency.Observe(dur.Seconds())
}

// ObserveReviews counts n decoded reviews. Product ids are caller input, so they are not a label.
func ObserveReviews(n int) {
	ReviewsDecoded.Add(float64(n))
}

func ObserveDecodeError(field string) {
	DecodeErrors.WithLabelValues(field).Inc()
}
