package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveJunctions prometheus.Gauge

	Recomputations  *prometheus.CounterVec // result label: computed|cached|error
	ReportsChanged  prometheus.Counter
	JourneysNoData  *prometheus.GaugeVec // junction label
	CrossingsNoData *prometheus.GaugeVec // junction label
	BestConflicts   *prometheus.GaugeVec // junction label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	ComputeDuration prometheus.Histogram
	PublishDuration prometheus.Histogram

	RecomputeInterval prometheus.Gauge // seconds
	RefreshInterval   prometheus.Gauge // seconds
}

func NewCollector(recomputeInterval, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveJunctions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossings_active_junctions",
			Help: "Number of junction workers currently running.",
		}),
		Recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crossings_recomputations_total",
			Help: "Junction report recomputations by result.",
		}, []string{"result"}),
		ReportsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crossings_reports_changed_total",
			Help: "Total reports that differed from the previous one for their junction.",
		}),
		JourneysNoData: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crossings_journeys_without_data",
			Help: "Journeys whose duration curve has no valid point.",
		}, []string{"junction"}),
		CrossingsNoData: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crossings_without_timeline",
			Help: "Crossings missing a green or red representative.",
		}, []string{"junction"}),
		BestConflicts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crossings_best_suggestion_conflicts",
			Help: "Conflict count of the top cycle duration suggestion.",
		}, []string{"junction"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crossings_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crossings_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossings_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crossings_compute_duration_seconds",
			Help:    "Duration of a junction report computation.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crossings_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RecomputeInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossings_recompute_interval_seconds",
			Help: "Report recompute interval in seconds.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossings_refresh_interval_seconds",
			Help: "Junction list refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveJunctions,
		c.Recomputations, c.ReportsChanged, c.JourneysNoData, c.CrossingsNoData, c.BestConflicts,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.ComputeDuration, c.PublishDuration,
		c.RecomputeInterval, c.RefreshInterval,
	)

	c.RecomputeInterval.Set(recomputeInterval.Seconds())
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
