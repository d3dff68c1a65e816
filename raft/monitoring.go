package raft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shrtyk/raft-params/api"
	"github.com/shrtyk/raft-params/pkg/logger"
	"github.com/shrtyk/raft-params/pkg/metrics"
)

// paramsStatus is the JSON body served on /params.
type paramsStatus struct {
	api.ParamsCfg
	MaxHeartbeatInterval int  `json:"maxHeartbeatInterval"`
	SnapshotsEnabled     bool `json:"snapshotsEnabled"`
}

// paramsHandler implements the http.Handler interface.
type paramsHandler struct {
	params *api.Parameters
	logger *slog.Logger
}

func (h *paramsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := paramsStatus{
		ParamsCfg:            h.params.Config(),
		MaxHeartbeatInterval: h.params.MaxHeartbeatInterval(),
		SnapshotsEnabled:     h.params.SnapshotsEnabled(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Warn("failed to encode parameters for monitoring", logger.ErrAttr(err))
		http.Error(w, "failed to encode parameters", http.StatusInternalServerError)
	}
}

// MonitoringServer serves the parameters of a node as JSON on /params and as
// Prometheus gauges on /metrics.
type MonitoringServer struct {
	addr   string
	logger *slog.Logger
	srv    *http.Server
	wg     sync.WaitGroup

	mu sync.Mutex
	ln net.Listener
}

func NewMonitoringServer(addr string, p *api.Parameters, log *slog.Logger) (*MonitoringServer, error) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, p); err != nil {
		return nil, fmt.Errorf("failed to register parameter metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/params", &paramsHandler{params: p, logger: log})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &MonitoringServer{
		addr:   addr,
		logger: log,
		srv:    &http.Server{Handler: mux},
	}, nil
}

func (m *MonitoringServer) Handler() http.Handler {
	return m.srv.Handler
}

// Start binds the listener and serves in the background.
func (m *MonitoringServer) Start() error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", m.addr, err)
	}

	m.mu.Lock()
	m.ln = ln
	m.mu.Unlock()

	m.logger.Info("starting monitoring server", "addr", ln.Addr().String())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitoring server failed", logger.ErrAttr(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (m *MonitoringServer) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

func (m *MonitoringServer) Stop(ctx context.Context) error {
	err := m.srv.Shutdown(ctx)
	m.wg.Wait()
	return err
}
