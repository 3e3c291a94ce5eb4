package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tuvistavie/securerandom"
)

// Execer is satisfied by pooled connections and transactions.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnqueueWork inserts a work_queue row for channel and wakes the listener.
func EnqueueWork(ctx context.Context, channel string, payload interface{}) error {
	conn := MustGetPooledPostgresSession()
	defer conn.Release()

	return EnqueueWorkWith(ctx, conn, channel, payload)
}

// EnqueueWorkWith enqueues on an existing connection or transaction. Inside a
// transaction the NOTIFY is delivered on commit.
func EnqueueWorkWith(ctx context.Context, db Execer, channel string, payload interface{}) error {
	id, err := securerandom.Hex(6)
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = db.Exec(ctx, `INSERT INTO work_queue (id, channel, payload, created_at) VALUES ($1, $2, $3, NOW())`, id, channel, b)
	if err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}

	_, err = db.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, id)
	if err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}

	return nil
}
