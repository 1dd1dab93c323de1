package logo

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exports call statistics as Prometheus collectors.
type PrometheusMetrics struct {
	// RequestTotal counts logical calls by method, path and outcome.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of logical calls including retries.
	RequestDuration *prometheus.HistogramVec
	// AttemptsTotal counts transport attempts, so retries show up as the
	// difference to RequestTotal.
	AttemptsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg. A nil reg uses the
// default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &PrometheusMetrics{
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logo_requests_total",
				Help:      "Total number of Logo API calls",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "logo_request_duration_seconds",
				Help:      "Logo API call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logo_request_attempts_total",
				Help:      "Total number of transport attempts against the Logo API",
			},
			[]string{"method", "path"},
		),
	}
}

// ResponseInterceptor observes every completed call. Pair it with
// MetricsRequestInterceptor to record latency.
func (p *PrometheusMetrics) ResponseInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		p.RequestTotal.WithLabelValues(req.Method, req.Path, statusLabel(resp)).Inc()
		p.AttemptsTotal.WithLabelValues(req.Method, req.Path).Add(float64(resp.Attempts))

		if latency := requestLatency(req); latency > 0 {
			p.RequestDuration.WithLabelValues(req.Method, req.Path).Observe(latency.Seconds())
		}

		return nil
	}
}

func statusLabel(resp *Response) string {
	if resp.StatusCode > 0 {
		return strconv.Itoa(resp.StatusCode)
	}

	if resp.Error != nil {
		return KindOf(resp.Error).String()
	}

	return "unknown"
}
