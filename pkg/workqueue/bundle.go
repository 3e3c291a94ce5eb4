package workqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var (
	ErrBundleNotFound    = errors.New("action bundle not found")
	ErrInvalidTransition = errors.New("invalid bundle state transition")
)

const bundleColumns = `
		action_bundle.id,
		action_bundle.project_id,
		action_bundle.bundle_type,
		action_bundle.scope_type,
		action_bundle.scope_count,
		action_bundle.scope_query_ref,
		action_bundle.state,
		action_bundle.approval_required,
		action_bundle.approval_status,
		action_bundle.approval_requested_by,
		action_bundle.approval_approved_by,
		action_bundle.recommended_action_key,
		action_bundle.target,
		action_bundle.health,
		action_bundle.ai_usage,
		action_bundle.draft_summary,
		action_bundle.geo_export,
		action_bundle.created_at,
		action_bundle.updated_at`

func ListActionBundles(ctx context.Context, projectID string) ([]types.ActionBundle, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT` + bundleColumns + `
	FROM
		action_bundle
	WHERE
		action_bundle.project_id = $1
	ORDER BY
		action_bundle.created_at ASC, action_bundle.id ASC`

	rows, err := conn.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing action bundles: %w", err)
	}
	defer rows.Close()

	bundles := []types.ActionBundle{}
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning action bundle: %w", err)
		}
		bundles = append(bundles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action bundles: %w", err)
	}

	return bundles, nil
}

func GetActionBundle(ctx context.Context, bundleID string) (*types.ActionBundle, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT` + bundleColumns + `
	FROM
		action_bundle
	WHERE
		action_bundle.id = $1`

	b, err := scanBundle(conn.QueryRow(ctx, query, bundleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("error scanning action bundle: %w", err)
	}
	return b, nil
}

// CreateActionBundle stores a bundle as produced by the analytics pipeline or a fixture file.
func CreateActionBundle(ctx context.Context, b types.ActionBundle) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	if b.State == "" {
		b.State = types.BundleStateNew
	}
	approval := b.Approval
	if approval == nil {
		approval = &types.Approval{ApprovalStatus: types.ApprovalStatusNotRequested}
	}
	if approval.ApprovalStatus == "" {
		approval.ApprovalStatus = types.ApprovalStatusNotRequested
	}

	target, err := marshalNullable(b.Target)
	if err != nil {
		return fmt.Errorf("error marshaling target: %w", err)
	}
	aiUsage, err := marshalNullable(b.AIUsage)
	if err != nil {
		return fmt.Errorf("error marshaling ai usage: %w", err)
	}
	draft, err := marshalNullable(b.Draft)
	if err != nil {
		return fmt.Errorf("error marshaling draft summary: %w", err)
	}
	geo, err := marshalNullable(b.GeoExport)
	if err != nil {
		return fmt.Errorf("error marshaling geo export: %w", err)
	}

	query := `INSERT INTO action_bundle (
		id, project_id, bundle_type, scope_type, scope_count, scope_query_ref, state,
		approval_required, approval_status, recommended_action_key,
		target, health, ai_usage, draft_summary, geo_export, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE SET
		scope_count = EXCLUDED.scope_count,
		scope_query_ref = EXCLUDED.scope_query_ref,
		state = EXCLUDED.state,
		approval_required = EXCLUDED.approval_required,
		approval_status = EXCLUDED.approval_status,
		target = EXCLUDED.target,
		health = EXCLUDED.health,
		ai_usage = EXCLUDED.ai_usage,
		draft_summary = EXCLUDED.draft_summary,
		geo_export = EXCLUDED.geo_export,
		updated_at = NOW()`

	_, err = conn.Exec(ctx, query,
		b.BundleID, b.ProjectID, b.BundleType, b.ScopeType, b.ScopeCount, b.ScopeQueryRef, b.State,
		approval.ApprovalRequired, approval.ApprovalStatus, b.RecommendedActionKey,
		target, nullableString(string(b.Health)), aiUsage, draft, geo)
	if err != nil {
		return fmt.Errorf("error inserting action bundle: %w", err)
	}
	return nil
}

// SetBundleState moves a bundle along its lifecycle. lastError is recorded when
// moving to FAILED and cleared otherwise.
func SetBundleState(ctx context.Context, bundleID string, to types.BundleState, lastError string) error {
	return inTx(ctx, func(tx pgx.Tx) error {
		return setStateTx(ctx, tx, bundleID, to, lastError)
	})
}

// lockState reads the current state of a bundle and holds its row lock until the tx ends.
func lockState(ctx context.Context, tx pgx.Tx, bundleID string) (types.BundleState, error) {
	var state types.BundleState
	err := tx.QueryRow(ctx, `SELECT state FROM action_bundle WHERE id = $1 FOR UPDATE`, bundleID).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrBundleNotFound
		}
		return "", fmt.Errorf("error locking action bundle: %w", err)
	}
	return state, nil
}

func setStateTx(ctx context.Context, tx pgx.Tx, bundleID string, to types.BundleState, lastError string) error {
	from, err := lockState(ctx, tx, bundleID)
	if err != nil {
		return err
	}
	if !types.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	_, err = tx.Exec(ctx, `UPDATE action_bundle SET state = $2, last_error = $3, updated_at = NOW() WHERE id = $1`,
		bundleID, to, nullableString(lastError))
	if err != nil {
		return fmt.Errorf("error updating bundle state: %w", err)
	}
	return nil
}

func scanBundle(row pgx.Row) (*types.ActionBundle, error) {
	var b types.ActionBundle
	var approval types.Approval
	var scopeQueryRef, requestedBy, approvedBy, health sql.NullString
	var target, aiUsage, draftSummary, geoExport []byte

	err := row.Scan(
		&b.BundleID,
		&b.ProjectID,
		&b.BundleType,
		&b.ScopeType,
		&b.ScopeCount,
		&scopeQueryRef,
		&b.State,
		&approval.ApprovalRequired,
		&approval.ApprovalStatus,
		&requestedBy,
		&approvedBy,
		&b.RecommendedActionKey,
		&target,
		&health,
		&aiUsage,
		&draftSummary,
		&geoExport,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scopeQueryRef.Valid {
		b.ScopeQueryRef = &scopeQueryRef.String
	}
	if requestedBy.Valid {
		approval.RequestedBy = &requestedBy.String
	}
	if approvedBy.Valid {
		approval.ApprovedBy = &approvedBy.String
	}
	b.Approval = &approval
	if health.Valid {
		b.Health = types.BundleHealth(health.String)
	}

	if err := unmarshalNullable(target, &b.Target); err != nil {
		return nil, fmt.Errorf("error unmarshaling target: %w", err)
	}
	if err := unmarshalNullable(aiUsage, &b.AIUsage); err != nil {
		return nil, fmt.Errorf("error unmarshaling ai usage: %w", err)
	}
	if err := unmarshalNullable(draftSummary, &b.Draft); err != nil {
		return nil, fmt.Errorf("error unmarshaling draft summary: %w", err)
	}
	if err := unmarshalNullable(geoExport, &b.GeoExport); err != nil {
		return nil, fmt.Errorf("error unmarshaling geo export: %w", err)
	}

	return &b, nil
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalNullable[T any](b []byte, dst **T) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
