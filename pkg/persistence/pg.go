package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"go.uber.org/zap"
)

type PostgresOpts struct {
	URI string

	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// DisableHealthMonitor skips the background pool monitor (tests, one-shot commands).
	DisableHealthMonitor bool
}

var (
	connStr string
	pool    *pgxpool.Pool
)

func InitPostgres(opts PostgresOpts) error {
	if opts.URI == "" {
		return errors.New("Postgres URI is required")
	}

	poolConfig, err := pgxpool.ParseConfig(opts.URI)
	if err != nil {
		return fmt.Errorf("failed to parse Postgres URI: %w", err)
	}

	poolConfig.MaxConns = 30
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info("Initializing database connection pool",
		zap.Int32("MaxConns", poolConfig.MaxConns),
		zap.Duration("MaxConnLifetime", poolConfig.MaxConnLifetime),
		zap.Duration("MaxConnIdleTime", poolConfig.MaxConnIdleTime))

	p, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create Postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	connStr = opts.URI
	pool = p

	if !opts.DisableHealthMonitor {
		go monitorPoolHealth(p)
	}

	return nil
}

// ConnectionString is the URI the pool was created with. The listener needs it
// for its dedicated LISTEN connection.
func ConnectionString() string {
	return connStr
}

func Close() {
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

func MustGetPooledPostgresSession() *pgxpool.Conn {
	if pool == nil {
		logger.Error(fmt.Errorf("Postgres pool is not initialized"))
		panic("Postgres pool is not initialized")
	}

	stats := pool.Stat()
	if stats.AcquiredConns() >= stats.MaxConns() {
		logger.Warn("Connection pool saturated",
			zap.Int32("AcquiredConns", stats.AcquiredConns()),
			zap.Int32("MaxConns", stats.MaxConns()))
	}

	startTime := time.Now()

	var conn *pgxpool.Conn
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(attempt)*5*time.Second)
		conn, err = pool.Acquire(ctx)
		cancel()

		if err == nil {
			if d := time.Since(startTime); d > 100*time.Millisecond {
				logger.Debug("Slow DB connection acquisition",
					zap.Duration("duration", d),
					zap.Int("attempt", attempt))
			}
			return conn
		}

		logger.Warn("Failed to acquire DB connection",
			zap.Int("attempt", attempt),
			zap.Error(err))

		time.Sleep(time.Duration(attempt*100) * time.Millisecond)
	}

	logger.Error(fmt.Errorf("failed to acquire from Postgres pool after 3 attempts: %w", err))
	panic("failed to acquire from Postgres pool: " + err.Error())
}

func monitorPoolHealth(p *pgxpool.Pool) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if pool != p {
			// pool was closed or replaced
			return
		}

		stats := p.Stat()
		if stats.AcquiredConns() > stats.MaxConns()*80/100 {
			logger.Warn("DB Pool nearing saturation",
				zap.Int32("AcquiredConns", stats.AcquiredConns()),
				zap.Int32("MaxConns", stats.MaxConns()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.Ping(ctx); err != nil {
			logger.Error(fmt.Errorf("pool health check failed: %w", err))
		}
		cancel()
	}
}
