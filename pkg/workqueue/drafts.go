package workqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/tuvistavie/securerandom"
)

var (
	ErrNoDrafts       = errors.New("bundle has no drafts to apply")
	ErrDraftAssetType = errors.New("draft has no asset type")
)

// draftTTL is how long generated drafts stay valid. Applying expired drafts
// moves the bundle to BLOCKED instead.
const draftTTL = 7 * 24 * time.Hour

// ListBundleAssets returns the assets a bundle targets. handles narrows the
// result for handle-scoped bundles; an empty handles slice means every asset
// of assetType in the project.
func ListBundleAssets(ctx context.Context, projectID string, assetType types.ScopeType, handles []string) ([]types.AssetMetadata, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		project_id, asset_type, handle, title, seo_title, seo_description
	FROM
		project_asset
	WHERE
		project_id = $1 AND
		asset_type = $2 AND
		(cardinality($3::text[]) = 0 OR handle = ANY($3::text[]))
	ORDER BY
		handle`

	if handles == nil {
		handles = []string{}
	}

	rows, err := conn.Query(ctx, query, projectID, string(assetType), handles)
	if err != nil {
		return nil, fmt.Errorf("error listing bundle assets: %w", err)
	}
	defer rows.Close()

	assets := []types.AssetMetadata{}
	for rows.Next() {
		var a types.AssetMetadata
		if err := rows.Scan(&a.ProjectID, &a.AssetType, &a.Handle, &a.Title, &a.SEOTitle, &a.SEODescription); err != nil {
			return nil, fmt.Errorf("error scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

func UpsertAsset(ctx context.Context, a types.AssetMetadata) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `INSERT INTO project_asset (project_id, asset_type, handle, title, seo_title, seo_description, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (project_id, asset_type, handle) DO UPDATE SET
		title = EXCLUDED.title,
		seo_title = EXCLUDED.seo_title,
		seo_description = EXCLUDED.seo_description,
		updated_at = NOW()`

	_, err := conn.Exec(ctx, query, a.ProjectID, string(a.AssetType), a.Handle, a.Title, a.SEOTitle, a.SEODescription)
	if err != nil {
		return fmt.Errorf("error upserting asset: %w", err)
	}
	return nil
}

// SaveDrafts replaces the bundle's unapplied drafts, refreshes its draft summary
// and moves it to DRAFTS_READY in one transaction.
func SaveDrafts(ctx context.Context, bundleID string, drafts []types.Draft) error {
	return inTx(ctx, func(tx pgx.Tx) error {
		if err := setStateTx(ctx, tx, bundleID, types.BundleStateDraftsReady, ""); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM bundle_draft WHERE bundle_id = $1 AND applied_at IS NULL`, bundleID); err != nil {
			return fmt.Errorf("error clearing drafts: %w", err)
		}

		for _, d := range drafts {
			if d.AssetType == "" {
				return fmt.Errorf("%w: draft for %s", ErrDraftAssetType, d.AssetHandle)
			}

			id, err := securerandom.Hex(6)
			if err != nil {
				return fmt.Errorf("failed to generate draft id: %w", err)
			}

			query := `INSERT INTO bundle_draft (id, bundle_id, asset_type, asset_handle, field, current_value, proposed_value, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (bundle_id, asset_handle, field) DO UPDATE SET
				asset_type = EXCLUDED.asset_type,
				current_value = EXCLUDED.current_value,
				proposed_value = EXCLUDED.proposed_value,
				created_at = NOW(),
				applied_at = NULL`
			_, err = tx.Exec(ctx, query, id, bundleID, string(d.AssetType), d.AssetHandle, string(d.Field), d.CurrentValue, d.ProposedValue)
			if err != nil {
				return fmt.Errorf("error inserting draft: %w", err)
			}
		}

		expiresAt := time.Now().Add(draftTTL).UTC()
		summary, err := marshalNullable(&types.DraftSummary{
			Status:    "READY",
			Count:     len(drafts),
			ExpiresAt: &expiresAt,
		})
		if err != nil {
			return fmt.Errorf("error marshaling draft summary: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE action_bundle SET draft_summary = $2, updated_at = NOW() WHERE id = $1`, bundleID, summary)
		if err != nil {
			return fmt.Errorf("error updating draft summary: %w", err)
		}
		return nil
	})
}

func ListDrafts(ctx context.Context, bundleID string) ([]types.Draft, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		id, bundle_id, asset_type, asset_handle, field, current_value, proposed_value, created_at, applied_at
	FROM
		bundle_draft
	WHERE
		bundle_id = $1
	ORDER BY
		asset_handle, field`

	rows, err := conn.Query(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("error listing drafts: %w", err)
	}
	defer rows.Close()

	drafts := []types.Draft{}
	for rows.Next() {
		var d types.Draft
		if err := rows.Scan(&d.ID, &d.BundleID, &d.AssetType, &d.AssetHandle, &d.Field, &d.CurrentValue, &d.ProposedValue, &d.CreatedAt, &d.AppliedAt); err != nil {
			return nil, fmt.Errorf("error scanning draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}
	return drafts, nil
}

// ApplyDrafts copies every unapplied proposed value into project_asset and moves
// the bundle to APPLIED. Drafts match assets by their own asset type, which for
// store-wide bundles differs from the bundle's scope type. It returns the number
// of drafts applied.
func ApplyDrafts(ctx context.Context, bundleID string) (int, error) {
	applied := 0
	err := inTx(ctx, func(tx pgx.Tx) error {
		var projectID string
		err := tx.QueryRow(ctx, `SELECT project_id FROM action_bundle WHERE id = $1`, bundleID).Scan(&projectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBundleNotFound
			}
			return fmt.Errorf("error reading bundle: %w", err)
		}

		if err := setStateTx(ctx, tx, bundleID, types.BundleStateApplied, ""); err != nil {
			return err
		}

		for _, field := range []types.DraftField{types.DraftFieldSEOTitle, types.DraftFieldSEODescription} {
			// field is one of two known column names, never user input
			query := fmt.Sprintf(`UPDATE project_asset SET %s = bundle_draft.proposed_value, updated_at = NOW()
			FROM bundle_draft
			WHERE
				bundle_draft.bundle_id = $1 AND
				bundle_draft.field = $2 AND
				bundle_draft.applied_at IS NULL AND
				project_asset.project_id = $3 AND
				project_asset.asset_type = bundle_draft.asset_type AND
				project_asset.handle = bundle_draft.asset_handle`, field)

			tag, err := tx.Exec(ctx, query, bundleID, string(field), projectID)
			if err != nil {
				return fmt.Errorf("error applying %s drafts: %w", field, err)
			}
			applied += int(tag.RowsAffected())
		}

		if applied == 0 {
			return ErrNoDrafts
		}

		_, err = tx.Exec(ctx, `UPDATE bundle_draft SET applied_at = NOW() WHERE bundle_id = $1 AND applied_at IS NULL`, bundleID)
		if err != nil {
			return fmt.Errorf("error marking drafts applied: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
