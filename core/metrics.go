package core

// Node health/metrics surface, adapted from teacher's system_health_logging.go:
// a Prometheus registry of gauges sampled from chain state and the WS2P
// service, exposed over an http.Server serving /metrics.

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// HealthLogger samples chain/network state into Prometheus gauges.
type HealthLogger struct {
	cs  *ChainState
	svc *Service

	registry          *prometheus.Registry
	heightGauge       prometheus.Gauge
	forkTreeGauge     prometheus.Gauge
	peerCountGauge    prometheus.Gauge
	monetaryMassGauge prometheus.Gauge
	memberCountGauge  prometheus.Gauge
}

// NewHealthLogger builds a registry of node-health gauges bound to cs/svc.
func NewHealthLogger(cs *ChainState, svc *Service) *HealthLogger {
	reg := prometheus.NewRegistry()
	h := &HealthLogger{cs: cs, svc: svc, registry: reg}

	h.heightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duniter_block_height",
		Help: "Current main-branch block number",
	})
	h.forkTreeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duniter_fork_tree_size",
		Help: "Number of blocks currently held in the fork tree",
	})
	h.peerCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duniter_peer_count",
		Help: "Number of established WS2P connections",
	})
	h.monetaryMassGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duniter_monetary_mass",
		Help: "Current monetary mass tracked by the chain state",
	})
	h.memberCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "duniter_wot_member_count",
		Help: "Number of enabled members in the web of trust",
	})

	reg.MustRegister(
		h.heightGauge,
		h.forkTreeGauge,
		h.peerCountGauge,
		h.monetaryMassGauge,
		h.memberCountGauge,
	)
	return h
}

// RecordMetrics samples current state into the registered gauges.
func (h *HealthLogger) RecordMetrics(forkTreeSize int) {
	h.heightGauge.Set(float64(h.cs.Current.Number))
	h.forkTreeGauge.Set(float64(forkTreeSize))
	h.monetaryMassGauge.Set(float64(h.cs.MonetaryMass))
	if h.svc != nil {
		h.peerCountGauge.Set(float64(h.svc.Connections()))
	}
	h.memberCountGauge.Set(float64(h.cs.Wot.MemberCount()))
}

// RunMetricsCollector periodically samples metrics until ctx is cancelled.
func (h *HealthLogger) RunMetricsCollector(ctx context.Context, interval time.Duration, forkTreeSize func() int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.RecordMetrics(forkTreeSize())
		case <-ctx.Done():
			return
		}
	}
}

// StartMetricsServer exposes the Prometheus registry over /metrics on addr.
func (h *HealthLogger) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("component", "metrics").Errorf("metrics server: %v", err)
		}
	}()
	return srv
}
