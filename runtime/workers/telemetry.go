package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker periodically samples registry stats into the Prometheus
// gauges. Sampling on a ticker keeps the registry's hot path free of any
// metrics bookkeeping.
type TelemetryWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	metrics        *observability.Metrics
	sampleInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry contract.IRegistry,
	metrics *observability.Metrics, sampleInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		registry:       registry,
		metrics:        metrics,
		sampleInterval: sampleInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry sampling")
			return nil
		case <-ticker.C:
			stats := w.registry.Stats()
			w.metrics.ConnectedUsers.Set(float64(stats.Users))
			w.metrics.ConnectedConnections.Set(float64(stats.Connections))
		}
	}
}
