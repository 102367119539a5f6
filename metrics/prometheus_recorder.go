package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdcomp"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	transformDuration *prom.HistogramVec
	stageDuration     *prom.HistogramVec
	transformResults  *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transformDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Duration of document transforms",
			Buckets:   prom.DefBuckets,
		}, []string{"frame"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual transform stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		transformResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Transform counts by frame and outcome",
		}, []string{"frame", "result"}),
	}
	reg.MustRegister(pr.transformDuration, pr.stageDuration, pr.transformResults)
	return pr
}

func (p *PrometheusRecorder) ObserveTransformDuration(frame string, d time.Duration) {
	if p == nil {
		return
	}
	p.transformDuration.WithLabelValues(frame).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTransformResult(frame string, result ResultLabel) {
	if p == nil {
		return
	}
	p.transformResults.WithLabelValues(frame, string(result)).Inc()
}

// Summarize totals mdcomp_transforms_total by result label across frames.
func Summarize(g prom.Gatherer) (map[ResultLabel]int, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[ResultLabel]int)
	for _, mf := range families {
		if mf.GetName() != namespace+"_transforms_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" {
					totals[ResultLabel(label.GetValue())] += int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return totals, nil
}
