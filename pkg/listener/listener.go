package listener

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"go.uber.org/zap"
)

// NotificationHandler is a function type that handles notifications
type NotificationHandler func(notification *pgconn.Notification) error

// LockKeyExtractor is a function type that extracts the lock key from the payload
type LockKeyExtractor func(payload []byte) (string, error)

// Listener drains the work_queue table, woken by LISTEN/NOTIFY and a poll ticker.
type Listener struct {
	conn         *pgx.Conn
	connMu       sync.Mutex
	processors   map[string]*queueProcessor
	pgURI        string
	pollInterval time.Duration
	maxAttempts  int
	keyLocks     map[string]chan struct{}
	mu           sync.Mutex
	wg           sync.WaitGroup
}

const (
	WorkQueueTable = "work_queue"
)

type queueProcessor struct {
	channel          string
	handler          NotificationHandler
	workerPool       chan struct{}
	processing       atomic.Bool
	maxWorkers       int
	maxDuration      time.Duration // Maximum time a task can be processing before considered failed
	lockKeyExtractor LockKeyExtractor
}

type queueMessage struct {
	id           string
	payload      []byte
	attemptCount int
}

// NewListener uses the connection string the persistence pool was created with.
func NewListener() *Listener {
	return &Listener{
		processors:   make(map[string]*queueProcessor),
		pgURI:        persistence.ConnectionString(),
		pollInterval: 5 * time.Second,
		maxAttempts:  5,
		keyLocks:     make(map[string]chan struct{}),
	}
}

// AddHandler registers a handler for a specific type of work
func (l *Listener) AddHandler(channel string, maxWorkers int, maxDuration time.Duration, handler NotificationHandler, lockKeyExtractor LockKeyExtractor) {
	l.processors[channel] = &queueProcessor{
		channel:          channel,
		handler:          handler,
		workerPool:       make(chan struct{}, maxWorkers),
		maxWorkers:       maxWorkers,
		maxDuration:      maxDuration,
		lockKeyExtractor: lockKeyExtractor,
	}
}

// Start connects, subscribes to every registered channel and begins
// processing in the background. It returns once the subscriptions are live.
func (l *Listener) Start(ctx context.Context) error {
	logger.Info("Starting listener")

	if err := l.connectAndListen(ctx); err != nil {
		logger.Error(fmt.Errorf("initial listen failed: %w", err))
		if reconnectErr := l.reconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("failed to establish initial database connection: %w", reconnectErr)
		}
	}

	logger.Info("Successfully subscribed to all channels",
		zap.Int("channelCount", len(l.processors)))

	l.triggerAll(ctx)

	l.wg.Add(2)
	go func() {
		defer l.wg.Done()
		l.processNotifications(ctx)
	}()
	go func() {
		defer l.wg.Done()
		l.poll(ctx)
	}()

	logger.Info("Listener started successfully")
	return nil
}

func (l *Listener) connectAndListen(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(connectCtx, l.pgURI)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var one int
	if err := conn.QueryRow(connectCtx, "SELECT 1").Scan(&one); err != nil {
		conn.Close(ctx)
		return fmt.Errorf("connection test failed: %w", err)
	}

	for channel := range l.processors {
		if _, err := conn.Exec(connectCtx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
			conn.Close(ctx)
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	l.connMu.Lock()
	l.conn = conn
	l.connMu.Unlock()
	return nil
}

func (l *Listener) currentConn() *pgx.Conn {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	return l.conn
}

func (l *Listener) closeConn(ctx context.Context) {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.conn != nil {
		l.conn.Close(ctx)
		l.conn = nil
	}
}

// poll picks up retries and timed out work that no NOTIFY will announce.
func (l *Listener) poll(ctx context.Context) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.triggerAll(ctx)
		}
	}
}

func (l *Listener) triggerAll(ctx context.Context) {
	for _, processor := range l.processors {
		l.trigger(ctx, processor)
	}
}

// trigger starts a drain of the processor's queue unless one is already running.
func (l *Listener) trigger(ctx context.Context, processor *queueProcessor) {
	if !processor.processing.CompareAndSwap(false, true) {
		return
	}
	go l.processQueue(ctx, processor)
}

func (l *Listener) processNotifications(ctx context.Context) {
	consecutiveErrors := 0
	maxConsecutiveErrors := 3

	for {
		if ctx.Err() != nil {
			logger.Info("Context canceled, exiting notification processor")
			return
		}

		conn := l.currentConn()
		if conn == nil {
			if err := l.reconnect(ctx); err != nil {
				logger.Error(fmt.Errorf("failed to reconnect: %w", err))
				return
			}
			continue
		}

		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		notification, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}

			if pgconn.Timeout(err) || strings.Contains(err.Error(), "context deadline exceeded") {
				// idle period, not a failure
				logger.Debug("No notification received, this is normal during periods of inactivity")
				if err := conn.Ping(ctx); err != nil {
					logger.Warn("Listen connection failed ping, reconnecting", zap.Error(err))
					l.closeConn(ctx)
				}
				continue
			}

			consecutiveErrors++
			logger.Error(fmt.Errorf("failed to wait for notification: %w", err),
				zap.Int("consecutiveErrors", consecutiveErrors))

			if consecutiveErrors >= maxConsecutiveErrors || conn.IsClosed() {
				logger.Warn("Too many consecutive errors or connection closed, forcing reconnection",
					zap.Int("consecutiveErrors", consecutiveErrors))
				l.closeConn(ctx)
				consecutiveErrors = 0
			}
			continue
		}

		consecutiveErrors = 0

		processor, exists := l.processors[notification.Channel]
		if !exists {
			logger.Warn("no processor registered for channel", zap.String("channel", notification.Channel))
			continue
		}

		l.trigger(ctx, processor)
	}
}

// processQueue claims batches of messages until the queue is empty.
func (l *Listener) processQueue(ctx context.Context, processor *queueProcessor) {
	defer processor.processing.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := l.claimMessages(ctx, processor)
		if err != nil {
			logger.Error(fmt.Errorf("failed to claim messages on %s: %w", processor.channel, err))
			return
		}

		if len(messages) == 0 {
			return
		}

		logger.Info("processing messages",
			zap.Int("count", len(messages)),
			zap.String("channel", processor.channel))

		var batch sync.WaitGroup
		for _, msg := range messages {
			if msg.attemptCount > 0 {
				logger.Info("processing message retry",
					zap.String("id", msg.id),
					zap.Int("attempt", msg.attemptCount),
					zap.Duration("timeout", processor.maxDuration))
			} else {
				logger.Debug("processing new message",
					zap.String("id", msg.id))
			}

			// Wait for worker slot
			processor.workerPool <- struct{}{}

			batch.Add(1)
			go func(msg queueMessage) {
				defer batch.Done()
				defer func() { <-processor.workerPool }()
				l.processMessage(ctx, processor, msg)
			}(msg)
		}
		batch.Wait()
	}
}

func (l *Listener) claimMessages(ctx context.Context, processor *queueProcessor) ([]queueMessage, error) {
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	// SKIP LOCKED lets several replicas drain the same channel
	rows, err := conn.Query(dbCtx, fmt.Sprintf(`
		WITH next_available_messages AS (
			SELECT id
			FROM %s
			WHERE completed_at IS NULL
			AND channel = $1
			AND attempt_count < $3
			AND (
				processing_started_at IS NULL
				OR processing_started_at < NOW() - $2::interval
			)
			ORDER BY created_at ASC
			LIMIT %d
			FOR UPDATE SKIP LOCKED
		)
		UPDATE %s AS wq
		SET processing_started_at = NOW(),
			-- only timed out messages count as a new attempt here
			attempt_count = CASE
				WHEN wq.processing_started_at IS NOT NULL THEN wq.attempt_count + 1
				ELSE wq.attempt_count
			END
		FROM next_available_messages
		WHERE wq.id = next_available_messages.id
		RETURNING wq.id, wq.payload, wq.attempt_count`,
		WorkQueueTable, processor.maxWorkers, WorkQueueTable),
		processor.channel, processor.maxDuration.String(), l.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []queueMessage{}
	for rows.Next() {
		var msg queueMessage
		if err := rows.Scan(&msg.id, &msg.payload, &msg.attemptCount); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (l *Listener) processMessage(ctx context.Context, processor *queueProcessor, msg queueMessage) {
	startTime := time.Now()

	lockKey := ""
	if processor.lockKeyExtractor != nil {
		var err error
		lockKey, err = processor.lockKeyExtractor(msg.payload)
		if err != nil {
			logger.Error(fmt.Errorf("failed to extract lock key: %w", err), zap.String("id", msg.id))
			l.finishMessage(ctx, msg.id, err, true)
			return
		}
	}

	if lockKey != "" {
		lockChan := l.getKeyLock(lockKey)
		select {
		case <-lockChan:
		case <-ctx.Done():
			return
		}
		defer func() {
			lockChan <- struct{}{}
		}()
	}

	handlerErr := processor.handler(&pgconn.Notification{
		Channel: processor.channel,
		Payload: string(msg.payload),
	})

	if !l.finishMessage(ctx, msg.id, handlerErr, false) || handlerErr != nil {
		return
	}

	logger.Info("message processed",
		zap.String("id", msg.id),
		zap.String("channel", processor.channel),
		zap.Duration("duration", time.Since(startTime)))
}

// finishMessage records the outcome. A failed message is retried later unless
// final is set, in which case it is completed with its error kept.
func (l *Listener) finishMessage(ctx context.Context, messageID string, handlerErr error, final bool) bool {
	updateCtx, updateCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer updateCancel()

	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	var err error
	switch {
	case handlerErr == nil:
		_, err = conn.Exec(updateCtx, fmt.Sprintf(`UPDATE %s SET completed_at = NOW() WHERE id = $1`, WorkQueueTable), messageID)
	case final:
		_, err = conn.Exec(updateCtx, fmt.Sprintf(`UPDATE %s SET completed_at = NOW(), last_error = $2 WHERE id = $1`, WorkQueueTable),
			messageID, handlerErr.Error())
	default:
		// left claimed, so it is retried once maxDuration passes and counted then
		_, err = conn.Exec(updateCtx, fmt.Sprintf(`
			UPDATE %s
			SET processing_started_at = NOW(),
				last_error = $2
			WHERE id = $1`, WorkQueueTable),
			messageID, handlerErr.Error())
	}
	if err != nil {
		logger.Error(fmt.Errorf("failed to update message %s: %w", messageID, err))
		return false
	}
	return true
}

// getKeyLock returns the lock channel for lockKey, creating it if it doesn't
// exist. Keys are shared across channels, so generate, review and apply for one
// bundle never overlap.
func (l *Listener) getKeyLock(lockKey string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	lockChan, exists := l.keyLocks[lockKey]
	if !exists {
		// one worker per key
		lockChan = make(chan struct{}, 1)
		lockChan <- struct{}{}
		l.keyLocks[lockKey] = lockChan
	}
	return lockChan
}

func newReconnectBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Second
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0
	return bo
}

// reconnect re-establishes the LISTEN connection with exponential backoff
// until it succeeds or ctx is done.
func (l *Listener) reconnect(ctx context.Context) error {
	logger.Info("Database connection lost, attempting to reconnect...")

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		l.closeConn(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return l.connectAndListen(ctx)
	}, backoff.WithContext(newReconnectBackoff(), ctx), func(err error, next time.Duration) {
		logger.Warn("Reconnect failed, will retry",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("failed to reconnect after %d attempts: %w", attempt, err)
	}

	logger.Info("Successfully reconnected and resubscribed to all channels")
	l.triggerAll(ctx)
	return nil
}

// Stop closes the LISTEN connection. Callers cancel the Start context first.
func (l *Listener) Stop(ctx context.Context) error {
	l.wg.Wait()
	l.closeConn(context.WithoutCancel(ctx))
	return nil
}
