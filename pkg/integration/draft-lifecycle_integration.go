package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/drafts"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/fixtures"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/llm"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/testhelpers"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"go.uber.org/zap"
)

var DemoFixturePath = filepath.Join(testhelpers.TestdataDir(), "fixtures", "demo-store.yaml")

// IntegrationTest_DraftLifecycle seeds the demo store and walks its first
// automation bundle through generate, approve and apply against a live model.
func IntegrationTest_DraftLifecycle(ctx context.Context, completer llm.Completer) error {
	f, err := fixtures.Load(DemoFixturePath)
	if err != nil {
		return err
	}
	if err := fixtures.Seed(ctx, f); err != nil {
		return err
	}

	editor, ok := f.Member(types.MemberRoleEditor)
	if !ok {
		return fmt.Errorf("fixture has no editor")
	}
	owner, ok := f.Member(types.MemberRoleOwner)
	if !ok {
		return fmt.Errorf("fixture has no owner")
	}

	if err := expectMissingScope(ctx, f); err != nil {
		return err
	}

	b, err := workqueue.GetActionBundle(ctx, f.Bundles[0].BundleID)
	if err != nil {
		return fmt.Errorf("failed to get bundle: %w", err)
	}

	r := cta.Resolve(*b, types.CapabilitiesForRole(editor.Role), f.Project.ID)
	if r.Primary != cta.LabelGenerateDrafts {
		return fmt.Errorf("expected %q for a new bundle, got %q", cta.LabelGenerateDrafts, r.Primary)
	}

	playbookID, assetType := cta.PlaybookTarget(*b)
	field, ok := workqueue.FieldForPlaybook(playbookID)
	if !ok {
		return fmt.Errorf("playbook %s has no draftable field", playbookID)
	}

	handles := []string{}
	for _, ref := range cta.ExtractScopeAssetRefs(*b) {
		handles = append(handles, workqueue.HandleFromRef(ref))
	}
	assets, err := workqueue.ListBundleAssets(ctx, f.Project.ID, assetType, handles)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	if len(assets) != len(handles) {
		return fmt.Errorf("expected %d assets, got %d", len(handles), len(assets))
	}

	ds, err := llm.GenerateDrafts(ctx, completer, b.BundleID, assets, field, llm.DefaultConcurrency)
	if err != nil {
		return fmt.Errorf("failed to generate drafts: %w", err)
	}
	for _, d := range ds {
		logger.Info("Draft", zap.String("handle", d.AssetHandle), zap.String("proposed", d.ProposedValue))
		if strings.TrimSpace(d.ProposedValue) == "" {
			return fmt.Errorf("empty draft for %s", d.AssetHandle)
		}
	}

	if err := workqueue.SaveDrafts(ctx, b.BundleID, ds); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}

	preview, err := drafts.Preview(ds)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	if preview == "" {
		return fmt.Errorf("expected a non-empty preview")
	}

	if err := workqueue.RequestApproval(ctx, b.BundleID, editor.UserID); err != nil {
		return fmt.Errorf("failed to request approval: %w", err)
	}
	if err := workqueue.ReviewApproval(ctx, b.BundleID, owner.UserID, true, nil); err != nil {
		return fmt.Errorf("failed to approve: %w", err)
	}

	n, err := workqueue.ApplyDrafts(ctx, b.BundleID)
	if err != nil {
		return fmt.Errorf("failed to apply drafts: %w", err)
	}
	if n != len(ds) {
		return fmt.Errorf("expected %d applied drafts, got %d", len(ds), n)
	}

	applied, err := workqueue.ListBundleAssets(ctx, f.Project.ID, assetType, handles)
	if err != nil {
		return fmt.Errorf("failed to list assets after apply: %w", err)
	}
	for _, a := range applied {
		if strings.TrimSpace(a.Value(field)) == "" {
			return fmt.Errorf("asset %s still missing %s after apply", a.Handle, field)
		}
	}

	b, err = workqueue.GetActionBundle(ctx, b.BundleID)
	if err != nil {
		return fmt.Errorf("failed to reload bundle: %w", err)
	}
	if b.State != types.BundleStateApplied {
		return fmt.Errorf("expected APPLIED, got %s", b.State)
	}

	return nil
}

func expectMissingScope(ctx context.Context, f *fixtures.Fixture) error {
	bundles, err := workqueue.ListActionBundles(ctx, f.Project.ID)
	if err != nil {
		return fmt.Errorf("failed to list bundles: %w", err)
	}
	if len(bundles) != len(f.Bundles) {
		return fmt.Errorf("expected %d bundles, got %d", len(f.Bundles), len(bundles))
	}

	owner := types.CapabilitiesForRole(types.MemberRoleOwner)
	found := false
	for _, r := range cta.ResolveAll(bundles, owner, f.Project.ID) {
		if r.MissingScope {
			found = true
			if r.DisabledReason != cta.ReasonMissingScope {
				return fmt.Errorf("bundle %s is missing scope but says %q", r.BundleID, r.DisabledReason)
			}
		}
	}
	if !found {
		return fmt.Errorf("expected one bundle without scope")
	}
	return nil
}
