package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login/token Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the login engine and the HTTP surface.

var (
	LoginOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "login_resolutions_total",
		Help: "Resoluciones de login por outcome",
	}, []string{"outcome"})

	LoginValidateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "login_validate_latency_ms",
		Help:    "Latencia de resolve+finalize en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	TokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_refreshes_total",
		Help: "Refreshes de access token por resultado",
	}, []string{"result"})

	TokenRefreshLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "token_refresh_latency_ms",
		Help:    "Latencia del refresh contra el provider en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	LinkInserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_links_total",
		Help: "Inserts de identity links por resultado",
	}, []string{"result"})
)

// Register registers the login metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginOutcomes,
		LoginValidateLatency,
		TokenRefreshes,
		TokenRefreshLatency,
		LinkInserts,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
