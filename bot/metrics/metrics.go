// Package metrics exposes the bot's prometheus counters.
package metrics

import (
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Interaction outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Succession outcomes.
const (
	SuccessionExplicit     = "explicit"
	SuccessionManager      = "manager"
	SuccessionRandomMember = "random_member"
	SuccessionDisbanded    = "disbanded"
)

var (
	// InteractionsTotal counts handled interactions by command and outcome.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribalbot_interactions_total",
		Help: "Total number of handled interactions by command and outcome",
	}, []string{"command", "outcome"})

	// AutocompleteLookups counts autocomplete cache lookups by bucket and result.
	AutocompleteLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribalbot_autocomplete_lookups_total",
		Help: "Total number of autocomplete cache lookups by bucket and result",
	}, []string{"bucket", "result"})

	// SuccessionsTotal counts leader successions by how the new leader was picked.
	SuccessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribalbot_successions_total",
		Help: "Total number of tribe leader successions by outcome",
	}, []string{"outcome"})
)

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	log.Printf("Serving metrics on %s", addr)

	return server
}
