// Package metrics exposes Prometheus counters for the bot
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"PiBot/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// registry holds every metric of the bot, not the global default one
	registry = prometheus.NewRegistry()

	commandsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pibot_commands_total",
			Help: "Slash commands received, partitioned by command name.",
		},
		[]string{"command"},
	)
	adventureStepsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pibot_adventure_steps_total",
			Help: "Adventure events handled, partitioned by event kind and outcome.",
		},
		[]string{"event", "outcome"},
	)
	imageRequestsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pibot_image_requests_total",
			Help: "Image API calls, partitioned by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// CommandReceived counts one slash command
func CommandReceived(name string) {
	commandsTotal.WithLabelValues(name).Inc()
}

// AdventureStep counts one adventure event
func AdventureStep(event string, err error) {
	adventureStepsTotal.WithLabelValues(event, outcome(err)).Inc()
}

// ImageRequest counts one call to an image source
func ImageRequest(source string, err error) {
	imageRequestsTotal.WithLabelValues(source, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Handler serves the bot metrics in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Server serves /metrics and /healthz
type Server struct {
	srv  *http.Server
	addr string
}

// NewServer creates a metrics server listening on addr (host:port)
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start binds the listen address, then serves in the background
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.addr = ln.Addr().String()

	go func() {
		logger.WithField("addr", s.addr).Info("metrics-server-started")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics-server-failed")
		}
	}()
	return nil
}

// Addr is the bound address once started
func (s *Server) Addr() string {
	return s.addr
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
