package listener

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/llm"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime"
	realtimetypes "github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime/types"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/slack"
	slacktypes "github.com/narasimhan-me/SEOEngine.io-sub014/pkg/slack/types"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/tuvistavie/securerandom"
	"go.uber.org/zap"
)

// newCompleter is replaced in tests.
var newCompleter = func() (llm.Completer, error) {
	return llm.NewAnthropicCompleter("")
}

// loadBundleForUser returns the bundle and what the user may do with it.
func loadBundleForUser(ctx context.Context, p BundlePayload) (*types.ActionBundle, types.ViewerCapabilities, error) {
	b, err := workqueue.GetActionBundle(ctx, p.BundleID)
	if err != nil {
		return nil, types.ViewerCapabilities{}, fmt.Errorf("failed to get bundle: %w", err)
	}
	viewer, err := workqueue.GetViewerCapabilities(ctx, b.ProjectID, p.UserID)
	if err != nil {
		return nil, types.ViewerCapabilities{}, fmt.Errorf("failed to get viewer capabilities: %w", err)
	}
	return b, viewer, nil
}

func handleResolveWorkQueueNotification(ctx context.Context, payload string) error {
	p, err := parseResolvePayload(payload)
	if err != nil {
		return err
	}

	bundles, err := workqueue.ListActionBundles(ctx, p.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to list bundles: %w", err)
	}
	viewer, err := workqueue.GetViewerCapabilities(ctx, p.ProjectID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to get viewer capabilities: %w", err)
	}

	e := realtimetypes.WorkQueueResolvedEvent{
		ProjectID:   p.ProjectID,
		Resolutions: cta.ResolveAll(bundles, viewer, p.ProjectID),
	}
	return realtime.SendEvent(ctx, realtimetypes.Recipient{UserIDs: []string{p.UserID}}, e)
}

func handleGenerateDraftsNotification(ctx context.Context, payload string) error {
	p, err := parseBundlePayload(payload)
	if err != nil {
		return err
	}

	b, viewer, err := loadBundleForUser(ctx, p)
	if err != nil {
		return err
	}
	if err := checkCanGenerate(*b, viewer); err != nil {
		return err
	}

	playbookID, assetType := cta.PlaybookTarget(*b)
	field, ok := workqueue.FieldForPlaybook(playbookID)
	if !ok {
		return fmt.Errorf("%w: playbook %s has no draftable field", ErrPrecondition, playbookID)
	}

	var handles []string
	for _, ref := range cta.ExtractScopeAssetRefs(*b) {
		handles = append(handles, workqueue.HandleFromRef(ref))
	}

	assets, err := workqueue.ListBundleAssets(ctx, b.ProjectID, assetType, handles)
	if err != nil {
		return fmt.Errorf("failed to list bundle assets: %w", err)
	}

	missing := []types.AssetMetadata{}
	for _, a := range assets {
		if strings.TrimSpace(a.Value(field)) == "" {
			missing = append(missing, a)
		}
	}
	if len(missing) == 0 {
		return fmt.Errorf("%w: no %s asset is missing %s", ErrPrecondition, strings.ToLower(string(assetType)), field)
	}

	logger.Info("Generating drafts",
		zap.String("bundleId", b.BundleID),
		zap.String("playbookId", playbookID),
		zap.Int("assets", len(missing)))

	completer, err := newCompleter()
	if err != nil {
		return fmt.Errorf("failed to create completer: %w", err)
	}

	drafts, err := llm.GenerateDrafts(ctx, completer, b.BundleID, missing, field, draftConcurrency())
	if err != nil {
		if markErr := workqueue.MarkFailed(ctx, b.BundleID, err.Error()); markErr != nil {
			logger.Error(fmt.Errorf("failed to mark bundle failed: %w", markErr))
		}
		publishBundleUpdated(ctx, b.BundleID)
		// the bundle now shows Retry; the queue entry is done
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}

	if err := workqueue.SaveDrafts(ctx, b.BundleID, drafts); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}

	publishBundleUpdated(ctx, b.BundleID)
	return nil
}

func handleRequestApprovalNotification(ctx context.Context, payload string) error {
	p, err := parseBundlePayload(payload)
	if err != nil {
		return err
	}

	b, viewer, err := loadBundleForUser(ctx, p)
	if err != nil {
		return err
	}
	if err := checkCanRequestApproval(*b, viewer); err != nil {
		return err
	}

	if err := workqueue.RequestApproval(ctx, b.BundleID, p.UserID); err != nil {
		return fmt.Errorf("failed to request approval: %w", err)
	}

	if err := notifyApprovalRequested(ctx, *b, p.UserID); err != nil {
		// state is already committed, a missed slack message is not worth a retry
		logger.Warn("Failed to send approval notification", zap.String("bundleId", b.BundleID), zap.Error(err))
	}

	publishBundleUpdated(ctx, b.BundleID)
	return nil
}

func handleReviewApprovalNotification(ctx context.Context, payload string) error {
	p, err := parseBundlePayload(payload)
	if err != nil {
		return err
	}

	b, viewer, err := loadBundleForUser(ctx, p)
	if err != nil {
		return err
	}
	approve, err := checkCanReview(*b, viewer, p.Decision)
	if err != nil {
		return err
	}

	// Approve & Apply: the apply is queued in the approval transaction and waits
	// on the bundle lock this message holds
	enqueueApply := func(ctx context.Context, tx persistence.Execer) error {
		if err := persistence.EnqueueWorkWith(ctx, tx, ChannelApplyBundle, BundlePayload{BundleID: b.BundleID, UserID: p.UserID}); err != nil {
			return fmt.Errorf("failed to enqueue apply: %w", err)
		}
		return nil
	}

	if err := workqueue.ReviewApproval(ctx, b.BundleID, p.UserID, approve, enqueueApply); err != nil {
		return fmt.Errorf("failed to review approval: %w", err)
	}

	publishBundleUpdated(ctx, b.BundleID)
	return nil
}

func handleApplyBundleNotification(ctx context.Context, payload string) error {
	p, err := parseBundlePayload(payload)
	if err != nil {
		return err
	}

	b, viewer, err := loadBundleForUser(ctx, p)
	if err != nil {
		return err
	}
	if err := checkCanApply(*b, viewer, time.Now()); err != nil {
		if errors.Is(err, ErrDraftsExpired) {
			blockExpiredBundle(ctx, b.BundleID)
		}
		return err
	}

	n, err := workqueue.ApplyDrafts(ctx, b.BundleID)
	if err != nil {
		if markErr := workqueue.MarkFailed(ctx, b.BundleID, err.Error()); markErr != nil {
			logger.Error(fmt.Errorf("failed to mark bundle failed: %w", markErr))
		}
		publishBundleUpdated(ctx, b.BundleID)
		return fmt.Errorf("failed to apply drafts: %w", err)
	}

	logger.Info("Applied drafts",
		zap.String("bundleId", b.BundleID),
		zap.Int("count", n))

	publishBundleUpdated(ctx, b.BundleID)
	return nil
}

// blockExpiredBundle moves a bundle whose drafts outlived their TTL to BLOCKED
// so the CTA offers regeneration instead of apply.
func blockExpiredBundle(ctx context.Context, bundleID string) {
	if err := workqueue.SetBundleState(ctx, bundleID, types.BundleStateBlocked, "drafts expired before apply"); err != nil {
		logger.Error(fmt.Errorf("failed to block expired bundle: %w", err))
		return
	}
	publishBundleUpdated(ctx, bundleID)
}

// publishBundleUpdated sends every project member the bundle with the CTAs
// resolved for their own role.
func publishBundleUpdated(ctx context.Context, bundleID string) {
	b, err := workqueue.GetActionBundle(ctx, bundleID)
	if err != nil {
		logger.Error(fmt.Errorf("failed to reload bundle for publish: %w", err))
		return
	}

	members, err := workqueue.ListProjectMembers(ctx, b.ProjectID)
	if err != nil {
		logger.Error(fmt.Errorf("failed to list project members: %w", err))
		return
	}

	for _, m := range members {
		e := realtimetypes.BundleUpdatedEvent{
			ProjectID:  b.ProjectID,
			Bundle:     *b,
			Resolution: cta.Resolve(*b, types.CapabilitiesForRole(m.Role), b.ProjectID),
		}
		if err := realtime.SendEvent(ctx, realtimetypes.Recipient{UserIDs: []string{m.UserID}}, e); err != nil {
			logger.Error(fmt.Errorf("failed to send bundle update to %s: %w", m.UserID, err))
		}
	}
}

func notifyApprovalRequested(ctx context.Context, b types.ActionBundle, userID string) error {
	members, err := workqueue.ListProjectMembers(ctx, b.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to list project members: %w", err)
	}

	id, err := securerandom.Hex(6)
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}

	n := approvalNotification(b, members, userID, param.Get().AppURL)
	n.ID = id
	n.CreatedAt = time.Now()

	return slack.SendNotificationToSlack(n)
}

func approvalNotification(b types.ActionBundle, members []types.ProjectMember, userID string, appURL string) slacktypes.ApprovalRequested {
	n := slacktypes.ApprovalRequested{
		ProjectID:  b.ProjectID,
		BundleID:   b.BundleID,
		ActionKey:  string(b.RecommendedActionKey),
		ScopeType:  string(b.ScopeType),
		ScopeCount: b.ScopeCount,
		URL:        strings.TrimRight(appURL, "/") + cta.GetCTARoute(b, b.ProjectID),
	}
	if b.Draft != nil {
		n.DraftCount = b.Draft.Count
	}

	for _, m := range members {
		if m.UserID == userID {
			n.RequestedByName = m.Name
			n.RequestedByEmail = m.Email
		}
		if m.Role == types.MemberRoleOwner && m.Email != "" {
			n.OwnerEmails = append(n.OwnerEmails, m.Email)
		}
	}
	return n
}

func draftConcurrency() int {
	n, err := strconv.Atoi(param.Get().DraftConcurrency)
	if err != nil || n <= 0 {
		return llm.DefaultConcurrency
	}
	return n
}
