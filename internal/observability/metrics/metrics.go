package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "envecom_"

	resultSuccess     = "success"
	resultError       = "error"
	resultInvalid     = "invalid"
	resultUnavailable = "unavailable"
)

var (
	registerOnce sync.Once

	simulationTotal   *prometheus.CounterVec
	simulationLatency *prometheus.HistogramVec
	compensableEnergy prometheus.Histogram

	extractionTotal   *prometheus.CounterVec
	extractionLatency *prometheus.HistogramVec
	uploadBytes       prometheus.Histogram

	optimizeTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers simulator metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		simulationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "simulation_total",
				Help: "Total compensation simulations by result",
			},
			[]string{"result"},
		)
		simulationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "simulation_latency_seconds",
				Help:    "Compensation simulation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		compensableEnergy = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compensable_energy_kwh",
				Help:    "Compensable energy per simulation in kWh",
				Buckets: []float64{0, 50, 100, 200, 300, 500, 1000, 2000, 5000},
			},
		)

		extractionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "extraction_total",
				Help: "Total bill field extractions by result",
			},
			[]string{"result"},
		)
		extractionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "extraction_latency_seconds",
				Help:    "Bill field extraction latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"result"},
		)
		uploadBytes = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "extraction_upload_bytes",
				Help:    "Size of bill uploads sent to extraction in bytes",
				Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8),
			},
		)

		optimizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "image_optimize_total",
				Help: "Total upload downscale operations by result",
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			simulationTotal,
			simulationLatency,
			compensableEnergy,
			extractionTotal,
			extractionLatency,
			uploadBytes,
			optimizeTotal,
			exportTotal,
			exportLatency,
		)
	})
}

// ObserveSimulation records simulation latency and result.
func ObserveSimulation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if simulationTotal != nil {
		simulationTotal.WithLabelValues(result).Inc()
	}
	if simulationLatency != nil {
		simulationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveCompensableEnergy records the compensable kWh of a simulation.
func ObserveCompensableEnergy(kwh float64) {
	if kwh < 0 {
		kwh = 0
	}
	if compensableEnergy != nil {
		compensableEnergy.Observe(kwh)
	}
}

// ObserveExtraction records extraction latency and result.
func ObserveExtraction(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if extractionTotal != nil {
		extractionTotal.WithLabelValues(result).Inc()
	}
	if extractionLatency != nil {
		extractionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveUploadSize records the payload size sent to extraction.
func ObserveUploadSize(size int) {
	if size < 0 {
		return
	}
	if uploadBytes != nil {
		uploadBytes.Observe(float64(size))
	}
}

// IncImageOptimize increments the downscale counter.
func IncImageOptimize(result string) {
	if result == "" {
		result = resultSuccess
	}
	if optimizeTotal != nil {
		optimizeTotal.WithLabelValues(result).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess     = resultSuccess
	ResultError       = resultError
	ResultInvalid     = resultInvalid
	ResultUnavailable = resultUnavailable
)
