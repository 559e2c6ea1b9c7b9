package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

var (
	// Run metrics
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsync_runs_total",
			Help: "Total number of synchronization runs by result",
		},
		[]string{"result"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sleepsync_run_duration_seconds",
			Help:    "Synchronization run duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	LastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sleepsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful synchronization run",
		},
	)

	// Session metrics
	TokenExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsync_token_exchanges_total",
			Help: "Total token exchanges performed against provider auth endpoints",
		},
		[]string{"provider", "result"},
	)

	// Provider request metrics
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsync_provider_requests_total",
			Help: "Total outbound provider requests",
		},
		[]string{"provider", "method", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleepsync_provider_request_duration_seconds",
			Help:    "Outbound provider request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	// Device mutation metrics
	AlarmsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sleepsync_alarms_deleted_total",
			Help: "Total device alarms deleted while replacing the alarm set",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		RunsTotal,
		RunDuration,
		LastSuccessTimestamp,
		TokenExchangesTotal,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		AlarmsDeletedTotal,
	)
}

// Push sends the default registry to a Pushgateway under the given job.
// One-shot runs exit before any scraper could see them, so they push instead.
func Push(url, job string) error {
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push()
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler exposes the server's mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
