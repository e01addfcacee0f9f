// Package metrics provides Prometheus instrumentation for the simulation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PurchasesTotal counts individual items confirmed sold.
	PurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minimarket_purchases_total",
		Help: "Total number of product units sold",
	})

	// PurchaseFailures counts purchase aborts by reason.
	PurchaseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minimarket_purchase_failures_total",
		Help: "Purchase aborts by reason",
	}, []string{"reason"})

	// AdvertsTotal counts campaigns posted, partitioned by type.
	AdvertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minimarket_adverts_total",
		Help: "Advertising campaigns posted",
	}, []string{"type"})

	// FeedPosts counts social feed posts by sentiment label.
	FeedPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minimarket_feed_posts_total",
		Help: "Sentiment posts appended to the social feed",
	}, []string{"sentiment"})

	// AgentTicks counts completed agent ticks by agent kind.
	AgentTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minimarket_agent_ticks_total",
		Help: "Completed agent decision cycles",
	}, []string{"kind"})

	// AgentsRunning tracks live agent goroutines by kind.
	AgentsRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "minimarket_agents_running",
		Help: "Agent workers currently running",
	}, []string{"kind"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
