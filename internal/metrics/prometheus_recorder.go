package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry          *prom.Registry
	stepDuration      *prom.HistogramVec
	stepResults       *prom.CounterVec
	operationDuration *prom.HistogramVec
	operationOutcome  *prom.CounterVec
	fetchRetries      prom.Counter
	lastRun           *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the brokermake metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "brokermake",
		Name:      "step_duration_seconds",
		Help:      "Duration of individual pipeline steps",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"operation", "step"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "brokermake",
		Name:      "step_results_total",
		Help:      "Step result counts by outcome",
	}, []string{"operation", "step", "result"})
	pr.operationDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "brokermake",
		Name:      "operation_duration_seconds",
		Help:      "Total duration of an operation",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"operation"})
	pr.operationOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "brokermake",
		Name:      "operation_outcomes_total",
		Help:      "Operation outcomes by final status",
	}, []string{"operation", "result"})
	pr.fetchRetries = prom.NewCounter(prom.CounterOpts{
		Namespace: "brokermake",
		Name:      "spec_fetch_retries_total",
		Help:      "Retries of the API specification download",
	})
	pr.lastRun = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "brokermake",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time an operation last finished",
	}, []string{"operation"})
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.operationDuration, pr.operationOutcome, pr.fetchRetries, pr.lastRun)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(operation, step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(operation, step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(operation, step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(operation, step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveOperationDuration(operation string, d time.Duration) {
	if p == nil || p.operationDuration == nil {
		return
	}
	p.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
	p.lastRun.WithLabelValues(operation).SetToCurrentTime()
}

func (p *PrometheusRecorder) IncOperationOutcome(operation string, result ResultLabel) {
	if p == nil || p.operationOutcome == nil {
		return
	}
	p.operationOutcome.WithLabelValues(operation, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry() {
	if p == nil || p.fetchRetries == nil {
		return
	}
	p.fetchRetries.Inc()
}

// WriteTextfile writes every gathered metric family to path in the Prometheus
// text exposition format. The parent directory is created if needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
