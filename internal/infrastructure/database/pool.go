package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	highUtilizationPct = 80
	highAcquireLatency = 100 * time.Millisecond
	highCancelRatePct  = 5
)

// PoolStats is a snapshot of the pgx pool counters.
type PoolStats struct {
	AcquireCount         int64         `json:"acquire_count"`
	AcquireDuration      time.Duration `json:"acquire_duration"`
	AcquiredConns        int32         `json:"acquired_conns"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	IdleConns            int32         `json:"idle_conns"`
	MaxConns             int32         `json:"max_conns"`
	TotalConns           int32         `json:"total_conns"`
}

func (s PoolStats) UtilizationPct() float64 {
	if s.MaxConns == 0 {
		return 0
	}
	return float64(s.AcquiredConns) / float64(s.MaxConns) * 100
}

func (s PoolStats) AvgAcquire() time.Duration {
	if s.AcquireCount == 0 {
		return 0
	}
	return s.AcquireDuration / time.Duration(s.AcquireCount)
}

func (s PoolStats) CancelRatePct() float64 {
	if s.AcquireCount == 0 {
		return 0
	}
	return float64(s.CanceledAcquireCount) / float64(s.AcquireCount) * 100
}

func (db *PostgresDB) Stats() (PoolStats, error) {
	if db.Pool == nil {
		return PoolStats{}, ErrPoolNotInitialized
	}

	raw := db.Pool.Stat()
	return PoolStats{
		AcquireCount:         raw.AcquireCount(),
		AcquireDuration:      raw.AcquireDuration(),
		AcquiredConns:        raw.AcquiredConns(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		IdleConns:            raw.IdleConns(),
		MaxConns:             raw.MaxConns(),
		TotalConns:           raw.TotalConns(),
	}, nil
}

// MonitorPoolHealth warns about pool pressure every interval until ctx is
// done. Run it in its own goroutine.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Warn().Err(err).Msg("pool stats unavailable")
				continue
			}
			warnPoolPressure(stats)
		}
	}
}

func warnPoolPressure(s PoolStats) {
	if pct := s.UtilizationPct(); pct > highUtilizationPct {
		log.Warn().
			Float64("utilization_pct", pct).
			Int32("acquired", s.AcquiredConns).
			Int32("max", s.MaxConns).
			Msg("high pool utilization")
	}
	if avg := s.AvgAcquire(); avg > highAcquireLatency {
		log.Warn().Dur("avg_acquire", avg).Msg("high pool acquire latency")
	}
	if rate := s.CancelRatePct(); rate > highCancelRatePct {
		log.Warn().Float64("cancel_rate_pct", rate).Msg("high pool acquire cancel rate")
	}
}
