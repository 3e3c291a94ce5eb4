package workqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var ErrApprovalNotPending = errors.New("bundle approval is not pending")

// SetApprovalStatus records an approval decision without touching bundle state.
// userID is stored as the requester for PENDING and as the approver for APPROVED.
func SetApprovalStatus(ctx context.Context, bundleID string, status types.ApprovalStatus, userID string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	return setApprovalStatusWith(ctx, conn, bundleID, status, userID)
}

func setApprovalStatusWith(ctx context.Context, db persistence.Execer, bundleID string, status types.ApprovalStatus, userID string) error {
	query := `UPDATE action_bundle SET
		approval_status = $2::text,
		approval_requested_by = CASE WHEN $2::text = 'PENDING' THEN $3 ELSE approval_requested_by END,
		approval_approved_by = CASE WHEN $2::text = 'APPROVED' THEN $3 WHEN $2::text = 'PENDING' THEN NULL ELSE approval_approved_by END,
		updated_at = NOW()
	WHERE id = $1`

	tag, err := db.Exec(ctx, query, bundleID, string(status), nullableString(userID))
	if err != nil {
		return fmt.Errorf("error updating approval status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBundleNotFound
	}
	return nil
}

// RequestApproval marks the bundle's approval PENDING and moves it to PENDING_APPROVAL.
func RequestApproval(ctx context.Context, bundleID string, userID string) error {
	return inTx(ctx, func(tx pgx.Tx) error {
		if err := setStateTx(ctx, tx, bundleID, types.BundleStatePendingApproval, ""); err != nil {
			return err
		}
		return setApprovalStatusWith(ctx, tx, bundleID, types.ApprovalStatusPending, userID)
	})
}

// ApprovedHook runs inside the approval transaction once a bundle is APPROVED.
type ApprovedHook func(ctx context.Context, tx persistence.Execer) error

// ReviewApproval resolves a pending approval. Approving moves the bundle to
// APPROVED, rejecting sends it back to DRAFTS_READY. onApproved, when set, runs
// in the same transaction after an approval; if it fails nothing is committed.
func ReviewApproval(ctx context.Context, bundleID string, userID string, approve bool, onApproved ApprovedHook) error {
	to, decision := types.BundleStateDraftsReady, types.ApprovalStatusRejected
	if approve {
		to, decision = types.BundleStateApproved, types.ApprovalStatusApproved
	}

	return inTx(ctx, func(tx pgx.Tx) error {
		// setStateTx holds the row lock, so the status read below is stable
		if err := setStateTx(ctx, tx, bundleID, to, ""); err != nil {
			return err
		}

		var status types.ApprovalStatus
		if err := tx.QueryRow(ctx, `SELECT approval_status FROM action_bundle WHERE id = $1`, bundleID).Scan(&status); err != nil {
			return fmt.Errorf("error reading approval status: %w", err)
		}
		if status != types.ApprovalStatusPending {
			return fmt.Errorf("%w: %s", ErrApprovalNotPending, status)
		}

		if err := setApprovalStatusWith(ctx, tx, bundleID, decision, userID); err != nil {
			return err
		}

		if approve && onApproved != nil {
			return onApproved(ctx, tx)
		}
		return nil
	})
}

// MarkFailed moves the bundle to FAILED and keeps the reason for View Error.
// A bundle that is already FAILED only gets its reason replaced.
func MarkFailed(ctx context.Context, bundleID string, reason string) error {
	return inTx(ctx, func(tx pgx.Tx) error {
		from, err := lockState(ctx, tx, bundleID)
		if err != nil {
			return err
		}
		if from != types.BundleStateFailed {
			return setStateTx(ctx, tx, bundleID, types.BundleStateFailed, reason)
		}

		_, err = tx.Exec(ctx, `UPDATE action_bundle SET last_error = $2, updated_at = NOW() WHERE id = $1`, bundleID, nullableString(reason))
		if err != nil {
			return fmt.Errorf("error updating last error: %w", err)
		}
		return nil
	})
}

func GetLastError(ctx context.Context, bundleID string) (string, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	var lastError *string
	if err := conn.QueryRow(ctx, `SELECT last_error FROM action_bundle WHERE id = $1`, bundleID).Scan(&lastError); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrBundleNotFound
		}
		return "", fmt.Errorf("error reading last error: %w", err)
	}
	if lastError == nil {
		return "", nil
	}
	return *lastError, nil
}

func inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
