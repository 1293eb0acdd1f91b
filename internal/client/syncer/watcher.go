package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/logging"
)

const (
	DefaultInterval     = 3 * time.Second
	defaultProbeTimeout = 3 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineSetter receives connectivity transitions.
type OnlineSetter interface {
	SetOnline(v bool)
}

// Watcher polls a Pinger and forwards the result to an OnlineSetter.
type Watcher struct {
	pinger   Pinger
	target   OnlineSetter
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
}

func NewWatcher(p Pinger, target OnlineSetter, interval time.Duration, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Nop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := defaultProbeTimeout
	if interval < timeout {
		timeout = interval
	}
	return &Watcher{
		pinger:   p,
		target:   target,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("module", "watcher"),
	}
}

// Probe checks connectivity once and reports the result.
func (w *Watcher) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(ctx)
	cancel()

	if err != nil {
		w.logger.Debug(ctx, "probe failed", "error", err)
	}
	online := err == nil
	w.target.SetOnline(online)
	return online
}

// Run probes immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
