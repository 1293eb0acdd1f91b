package realm

import (
	"context"
	"time"
)

type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

type Health struct {
	Status    HealthStatus `json:"status"`
	Used      int64        `json:"used"`
	Total     int64        `json:"total"`
	Open      bool         `json:"isInitialized"`
	CheckedAt time.Time    `json:"timestamp"`
	Error     string       `json:"error,omitempty"`
}

// CheckHealth never fails; problems are reported through Status.
func (r *Realm) CheckHealth(ctx context.Context) Health {
	h := Health{Open: r.IsOpen(), CheckedAt: r.now()}

	stats, err := r.Stats(ctx)
	if err != nil {
		h.Status = HealthError
		h.Error = err.Error()
		return h
	}

	h.Used, h.Total = stats.Used, stats.Total
	if float64(stats.Used) < float64(stats.Total)*warnRatio {
		h.Status = HealthHealthy
	} else {
		h.Status = HealthWarning
	}
	return h
}
