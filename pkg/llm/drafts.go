package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

var ErrEmptyDraft = errors.New("model returned an empty draft")

var fieldLimits = map[types.DraftField]int{
	types.DraftFieldSEOTitle:       60,
	types.DraftFieldSEODescription: 160,
}

var fieldNames = map[types.DraftField]string{
	types.DraftFieldSEOTitle:       "SEO title",
	types.DraftFieldSEODescription: "meta description",
}

// newRetryBackoff is swapped out in tests.
var newRetryBackoff = func() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(bo, 2)
}

// GenerateMetadataDraft proposes a new value for one field of one asset.
func GenerateMetadataDraft(ctx context.Context, c Completer, asset types.AssetMetadata, field types.DraftField) (types.Draft, error) {
	limit, ok := fieldLimits[field]
	if !ok {
		return types.Draft{}, fmt.Errorf("unsupported draft field %q", field)
	}

	prompt := fmt.Sprintf(metadataDraftPrompt,
		fieldNames[field],
		strings.ToLower(string(asset.AssetType)),
		limit,
		asset.Handle,
		asset.Title,
		orNone(asset.SEOTitle),
		orNone(asset.SEODescription),
	)

	var proposed string
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		text, err := c.Complete(ctx, prompt, 256)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logger.Warn("Draft generation attempt failed",
				zap.String("handle", asset.Handle),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}

		proposed = cleanDraft(text, limit)
		if proposed == "" {
			return ErrEmptyDraft
		}
		return nil
	}, backoff.WithContext(newRetryBackoff(), ctx))
	if err != nil {
		return types.Draft{}, fmt.Errorf("failed to generate %s for %s: %w", field, asset.Handle, err)
	}

	return types.Draft{
		AssetType:     asset.AssetType,
		AssetHandle:   asset.Handle,
		Field:         field,
		CurrentValue:  asset.Value(field),
		ProposedValue: proposed,
	}, nil
}

// GenerateDrafts runs GenerateMetadataDraft over assets with at most
// concurrency calls in flight. Results keep the order of assets. The first
// failure cancels the rest.
func GenerateDrafts(ctx context.Context, c Completer, bundleID string, assets []types.AssetMetadata, field types.DraftField, concurrency int) ([]types.Draft, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	drafts := make([]types.Draft, len(assets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, asset := range assets {
		i, asset := i, asset
		eg.Go(func() error {
			d, err := GenerateMetadataDraft(egCtx, c, asset, field)
			if err != nil {
				return err
			}
			d.BundleID = bundleID
			drafts[i] = d
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Generated drafts",
		zap.String("bundleId", bundleID),
		zap.Int("count", len(drafts)))

	return drafts, nil
}

// cleanDraft strips what models tend to wrap a one-line answer in and caps
// the result at limit runes on a word boundary where possible.
func cleanDraft(s string, limit int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, label := range []string{"SEO title:", "Meta description:", "Title:", "Description:"} {
		if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
			s = strings.TrimSpace(s[len(label):])
		}
	}
	s = strings.Trim(s, "\"'`“”")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	r := []rune(s)[:limit]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
