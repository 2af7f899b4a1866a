package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prometheusNamespace = "sentinel"

var (
	pageRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "page_renders_total",
		Help:      "Page renders served, by result",
	}, []string{"result"})
	pageRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: prometheusNamespace,
		Name:      "page_render_duration_seconds",
		Help:      "Time spent rendering the page",
		Buckets:   prometheus.DefBuckets,
	})
	embedProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "embed_probe_total",
		Help:      "Embed status checks answered, by verdict",
	}, []string{"verdict"})
)
