package metrics

import (
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/services"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trial outcomes reported on planner_trials_total.
const (
	OutcomeOK         = "ok"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

// Collector records plan search progress on its own registry and serves it
// for scraping. It satisfies services.SearchObserver.
type Collector struct {
	registry *prometheus.Registry

	trials        *prometheus.CounterVec
	trialLength   prometheus.Histogram
	trialMissed   prometheus.Histogram
	searchSeconds prometheus.Histogram
	planLength    prometheus.Gauge
	planMissed    prometheus.Gauge
	truckMiles    *prometheus.GaugeVec
}

var _ services.SearchObserver = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_trials_total",
			Help: "Plan search candidates evaluated, by outcome",
		}, []string{"outcome", "priority"}),
		trialLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_trial_length_miles",
			Help:    "Total plan length of feasible candidates",
			Buckets: prometheus.ExponentialBuckets(10, 1.5, 10),
		}),
		trialMissed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_trial_missed_deadlines",
			Help:    "Missed deadlines of feasible candidates",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		}),
		searchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_search_duration_seconds",
			Help:    "Wall time of a complete plan search",
			Buckets: prometheus.DefBuckets,
		}),
		planLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_plan_length_miles",
			Help: "Total length of the selected plan",
		}),
		planMissed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_plan_missed_deadlines",
			Help: "Missed deadlines of the selected plan",
		}),
		truckMiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_truck_miles",
			Help: "Committed mileage per truck",
		}, []string{"truck"}),
	}

	c.registry.MustRegister(
		c.trials,
		c.trialLength,
		c.trialMissed,
		c.searchSeconds,
		c.planLength,
		c.planMissed,
		c.truckMiles,
	)
	return c
}

func (c *Collector) TrialFinished(cand services.Candidate, missed int, length float64, err error) {
	outcome := OutcomeOK
	switch {
	case err == nil:
		c.trialLength.Observe(length)
		c.trialMissed.Observe(float64(missed))
	case errors.Is(err, domain.ErrNoFeasibleAssignment), errors.Is(err, domain.ErrInfeasibleGroup):
		outcome = OutcomeInfeasible
	default:
		outcome = OutcomeError
	}
	c.trials.WithLabelValues(outcome, cand.Priority.Name).Inc()
}

func (c *Collector) PlanSelected(missed int, length float64, elapsed time.Duration) {
	c.searchSeconds.Observe(elapsed.Seconds())
	c.planLength.Set(length)
	c.planMissed.Set(float64(missed))
}

// RecordMileage publishes committed miles per truck id.
func (c *Collector) RecordMileage(miles map[int]float64) {
	for id, m := range miles {
		c.truckMiles.WithLabelValues(strconv.Itoa(id)).Set(m)
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
