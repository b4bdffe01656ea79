// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Short code kinds used as the "kind" label of ShortenedURLs.
const (
	KindGenerated = "generated"
	KindCustom    = "custom"
)

var (
	ShortenedURLs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ttl_shortener",
		Name:      "shortened_urls_total",
		Help:      "Shortened URLs by short code kind.",
	}, []string{"kind"})
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ttl_shortener",
		Name:      "resolutions_total",
		Help:      "Short code resolutions by outcome.",
	}, []string{"status"})
	ClicksFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ttl_shortener",
		Name:      "clicks_failed_total",
		Help:      "Clicks that could not be stored.",
	})
	SweptURLs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ttl_shortener",
		Name:      "swept_urls_total",
		Help:      "Expired URLs removed by sweeps.",
	})
)

func init() {
	prometheus.MustRegister(ShortenedURLs, Resolutions, ClicksFailed, SweptURLs)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
