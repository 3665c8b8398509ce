package utils

import "github.com/prometheus/client_golang/prometheus"

type AppMetrics struct {
	HTTPRequests   *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	ForcedLogouts  prometheus.Counter
	ReviewsWritten *prometheus.CounterVec
	HelpfulToggles *prometheus.CounterVec
	MovieCache     *prometheus.CounterVec
	DetailTimeouts prometheus.Counter
}

// Metrics 进程级指标，在包初始化时注册到默认 Registry
var Metrics = initMetrics()

func initMetrics() *AppMetrics {
	m := &AppMetrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinereview_http_requests_total",
				Help: "Total number of HTTP requests by route and status class",
			},
			[]string{"path", "class"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinereview_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ForcedLogouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cinereview_forced_logouts_total",
				Help: "Sessions cleared because the two markers disagreed",
			},
		),
		ReviewsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinereview_reviews_written_total",
				Help: "Review mutations by operation",
			},
			[]string{"op"},
		),
		HelpfulToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinereview_helpful_toggles_total",
				Help: "Helpful-vote toggles by resulting state",
			},
			[]string{"state"},
		),
		MovieCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinereview_movie_cache_lookups_total",
				Help: "Movie memo lookups by result",
			},
			[]string{"result"},
		),
		DetailTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cinereview_detail_timeouts_total",
				Help: "Movie detail loads that hit the deadline",
			},
		),
	}

	prometheus.MustRegister(m.HTTPRequests)
	prometheus.MustRegister(m.Logins)
	prometheus.MustRegister(m.ForcedLogouts)
	prometheus.MustRegister(m.ReviewsWritten)
	prometheus.MustRegister(m.HelpfulToggles)
	prometheus.MustRegister(m.MovieCache)
	prometheus.MustRegister(m.DetailTimeouts)

	return m
}
