package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 3 * time.Second

type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	InUse    int32 `json:"in_use"`
	Max      int32 `json:"max"`
	Acquires int64 `json:"acquires"`
	// Waits counts acquires that had to wait for a free connection.
	Waits int64 `json:"waits"`
}

func statsOf(pool *pgxpool.Pool) PoolStats {
	s := pool.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		InUse:    s.AcquiredConns(),
		Max:      s.MaxConns(),
		Acquires: s.AcquireCount(),
		Waits:    s.EmptyAcquireCount(),
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthBody struct {
	Status    string     `json:"status"`
	LatencyMS int64      `json:"latency_ms"`
	Pool      *PoolStats `json:"pool,omitempty"`
}

// HealthHandler serves GET /health/db. It answers 503 when the database does
// not respond to a ping in time; the cause is not exposed.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return healthHandler(pool, func() PoolStats { return statsOf(pool) })
}

func healthHandler(p Pinger, stats func() PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		err := p.Ping(ctx)
		body := healthBody{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			body.Status = "unavailable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		s := stats()
		body.Pool = &s
		return c.JSON(http.StatusOK, body)
	}
}
