package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the simulator.
type Metrics struct {
	// Simulation metrics.
	Simulations        *prometheus.CounterVec // labels: outcome={success,dropped,invalid_input,not_found,...,stale}
	SimulationDuration prometheus.Histogram
	Concentration      prometheus.Histogram
	Classifications    *prometheus.CounterVec // labels: level
	SitesActive        prometheus.Gauge

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,not_found,error}
	WeatherAPIDuration prometheus.Histogram

	// Result publishing metrics.
	ResultsPublished *prometheus.CounterVec // labels: outcome={success,error}
	PublishEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnsim",
			Name:      "simulations_total",
			Help:      "Simulation requests by outcome.",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burnsim",
			Name:      "simulation_duration_seconds",
			Help:      "Duration of a simulation including the weather lookup.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Concentration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burnsim",
			Name:      "pm25_concentration_ug_m3",
			Help:      "Estimated PM2.5 concentrations of stored results.",
			Buckets:   []float64{12, 35.4, 55.4, 150.4, 250, 500},
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnsim",
			Name:      "classifications_total",
			Help:      "Stored results by health classification.",
		}, []string{"level"}),
		SitesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "burnsim",
			Name:      "sites_active",
			Help:      "Number of candidate sites in the session.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnsim",
			Name:      "weather_requests_total",
			Help:      "Forecast API requests by outcome.",
		}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burnsim",
			Name:      "weather_api_duration_seconds",
			Help:      "Forecast API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ResultsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnsim",
			Name:      "results_published_total",
			Help:      "Simulation results published to Kafka by outcome.",
		}, []string{"outcome"}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "burnsim",
			Name:      "publish_enabled",
			Help:      "1 when result publishing is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.Simulations,
		m.SimulationDuration,
		m.Concentration,
		m.Classifications,
		m.SitesActive,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.ResultsPublished,
		m.PublishEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Simulations:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burnsim", Name: "simulations_total"}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "burnsim", Name: "simulation_duration_seconds"}),
		Concentration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "burnsim", Name: "pm25_concentration_ug_m3"}),
		Classifications:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burnsim", Name: "classifications_total"}, []string{"level"}),
		SitesActive:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "burnsim", Name: "sites_active"}),
		WeatherRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burnsim", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "burnsim", Name: "weather_api_duration_seconds"}),
		ResultsPublished:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burnsim", Name: "results_published_total"}, []string{"outcome"}),
		PublishEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "burnsim", Name: "publish_enabled"}),
	}
}
