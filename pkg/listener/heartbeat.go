package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

var startHeartbeat sync.Once

// StartHeartbeat keeps the pool and Centrifugo warm while no bundle work
// arrives, and logs how many queue messages each channel still has open.
// Only the first call starts the loop.
func StartHeartbeat(ctx context.Context) {
	startHeartbeat.Do(func() {
		ticker := time.NewTicker(heartbeatInterval)
		go func() {
			defer ticker.Stop()
			heartbeat(ctx, ticker.C, beat)
		}()
		logger.Info("Worker heartbeat started", zap.Duration("interval", heartbeatInterval))
	})
}

// heartbeat calls onTick for every tick until ctx is done.
func heartbeat(ctx context.Context, ticks <-chan time.Time, onTick func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker heartbeat stopped")
			return
		case <-ticks:
			onTick(ctx)
		}
	}
}

func beat(ctx context.Context) {
	backlog, err := openMessagesByChannel(ctx)
	if err != nil {
		logger.Warn("Work queue unreachable", zap.Error(err))
	} else if len(backlog) > 0 {
		fields := make([]zap.Field, 0, len(backlog))
		for channel, n := range backlog {
			fields = append(fields, zap.Int(channel, n))
		}
		logger.Debug("Work queue backlog", fields...)
	}

	if err := realtime.Ping(ctx); err != nil {
		logger.Warn("Centrifugo unreachable", zap.Error(err))
	}
}

// openMessagesByChannel counts uncompleted work_queue rows per channel. The
// query doubles as the pool liveness check.
func openMessagesByChannel(ctx context.Context) (map[string]int, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`SELECT channel, COUNT(*) FROM %s WHERE completed_at IS NULL GROUP BY channel`, WorkQueueTable))
	if err != nil {
		return nil, fmt.Errorf("failed to count open messages: %w", err)
	}
	defer rows.Close()

	backlog := map[string]int{}
	for rows.Next() {
		var channel string
		var n int
		if err := rows.Scan(&channel, &n); err != nil {
			return nil, fmt.Errorf("failed to scan backlog: %w", err)
		}
		backlog[channel] = n
	}
	return backlog, rows.Err()
}
