package docroute

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// instrumentation records request latency per route template.
type instrumentation struct {
	duration *prometheus.HistogramVec
}

func newInstrumentation(reg prometheus.Registerer) (*instrumentation, error) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docroute_request_duration_seconds",
		Help:    "Latency of requests dispatched through finalized routes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})

	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}

	return &instrumentation{duration: vec}, nil
}

func (in *instrumentation) wrap(tmpl string, h http.Handler) http.Handler {
	if in == nil {
		return h
	}
	obs := in.duration.MustCurryWith(prometheus.Labels{"route": tmpl})
	return promhttp.InstrumentHandlerDuration(obs, h)
}
