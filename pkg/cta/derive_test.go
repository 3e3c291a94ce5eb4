package cta

import (
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
)

var (
	owner  = types.CapabilitiesForRole(types.MemberRoleOwner)
	editor = types.CapabilitiesForRole(types.MemberRoleEditor)
	viewer = types.CapabilitiesForRole(types.MemberRoleViewer)
)

func productBundle(bundleType types.BundleType, state types.BundleState) types.ActionBundle {
	return types.ActionBundle{
		BundleID:             string(bundleType) + ":FIX_MISSING_METADATA:missing_seo_title:PRODUCTS:proj1",
		BundleType:           bundleType,
		ScopeType:            types.ScopeTypeProducts,
		ScopeCount:           12,
		State:                state,
		RecommendedActionKey: types.ActionKeyFixMissingMetadata,
	}
}

func requireApproval(b types.ActionBundle, status types.ApprovalStatus) types.ActionBundle {
	b.Approval = &types.Approval{ApprovalRequired: true, ApprovalStatus: status}
	return b
}

func TestDeriveCTAs(t *testing.T) {
	tests := []struct {
		name   string
		bundle types.ActionBundle
		viewer types.ViewerCapabilities
		want   CTAs
	}{
		{
			name:   "new automation run with draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateNew),
			viewer: editor,
			want:   CTAs{Primary: LabelGenerateDrafts},
		},
		{
			name:   "new automation run without draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateNew),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewDetails, DisabledReason: ReasonCannotGenerateDrafts},
		},
		{
			name:   "new asset optimization is always view issues",
			bundle: productBundle(types.BundleTypeAssetOptimization, types.BundleStateNew),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewIssues},
		},
		{
			name:   "previewed with draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStatePreviewed),
			viewer: owner,
			want:   CTAs{Primary: LabelGenerateFull, Secondary: LabelViewPreview},
		},
		{
			name:   "previewed without draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStatePreviewed),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewPreview, Secondary: LabelViewPreview, DisabledReason: ReasonCannotGenerateDrafts},
		},
		{
			name:   "drafts ready needing approval, editor can request",
			bundle: requireApproval(productBundle(types.BundleTypeAutomationRun, types.BundleStateDraftsReady), types.ApprovalStatusNotRequested),
			viewer: editor,
			want:   CTAs{Primary: LabelRequestApproval, Secondary: LabelViewDrafts, DisabledReason: ReasonApprovalRequired},
		},
		{
			name:   "drafts ready needing approval, viewer cannot request",
			bundle: requireApproval(productBundle(types.BundleTypeAutomationRun, types.BundleStateDraftsReady), types.ApprovalStatusRejected),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewDrafts, Secondary: LabelViewDrafts, DisabledReason: ReasonApprovalRequired},
		},
		{
			name:   "drafts ready already approved",
			bundle: requireApproval(productBundle(types.BundleTypeAutomationRun, types.BundleStateDraftsReady), types.ApprovalStatusApproved),
			viewer: owner,
			want:   CTAs{Primary: LabelApplyChanges, Secondary: LabelViewDrafts},
		},
		{
			name:   "drafts ready without approval, no apply rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateDraftsReady),
			viewer: editor,
			want:   CTAs{Primary: LabelViewDrafts, Secondary: LabelViewDrafts, DisabledReason: ReasonCannotApply},
		},
		{
			name:   "pending approval for approver",
			bundle: requireApproval(productBundle(types.BundleTypeAutomationRun, types.BundleStatePendingApproval), types.ApprovalStatusPending),
			viewer: owner,
			want:   CTAs{Primary: LabelApproveAndApply, Secondary: LabelReject},
		},
		{
			name:   "pending approval for non approver",
			bundle: requireApproval(productBundle(types.BundleTypeAutomationRun, types.BundleStatePendingApproval), types.ApprovalStatusPending),
			viewer: editor,
			want:   CTAs{Primary: LabelViewDrafts, DisabledReason: ReasonAwaitingApproval},
		},
		{
			name:   "approved with apply rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateApproved),
			viewer: owner,
			want:   CTAs{Primary: LabelApplyChanges, Secondary: LabelViewDrafts},
		},
		{
			name:   "approved without apply rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateApproved),
			viewer: editor,
			want:   CTAs{Primary: LabelViewDrafts, Secondary: LabelViewDrafts, DisabledReason: ReasonCannotApply},
		},
		{
			name:   "applied",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateApplied),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewResults},
		},
		{
			name:   "failed with draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateFailed),
			viewer: editor,
			want:   CTAs{Primary: LabelRetry, Secondary: LabelViewError},
		},
		{
			name:   "failed without draft rights",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateFailed),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewDetails, Secondary: LabelViewError, DisabledReason: ReasonCannotGenerateDrafts},
		},
		{
			name:   "blocked",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateBlocked),
			viewer: owner,
			want:   CTAs{Primary: LabelViewDetails, DisabledReason: ReasonBlocked},
		},
		{
			name:   "unknown state",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleState("ARCHIVED")),
			viewer: owner,
			want:   CTAs{Primary: LabelViewDetails},
		},
		{
			name:   "geo export ignores state",
			bundle: productBundle(types.BundleTypeGeoExport, types.BundleStateBlocked),
			viewer: viewer,
			want:   CTAs{Primary: LabelViewExportOptions},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCTAs(tt.bundle, tt.viewer))
		})
	}
}

func TestDeriveCTAs_MissingScopeOverridesState(t *testing.T) {
	for _, state := range types.AllBundleStates() {
		for _, scope := range []types.ScopeType{types.ScopeTypePages, types.ScopeTypeCollections} {
			b := types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:" + string(scope) + ":proj1",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  scope,
				State:      state,
			}
			got := DeriveCTAs(b, owner)
			assert.Equal(t, CTAs{Primary: LabelViewDetails, DisabledReason: ReasonMissingScope}, got, "state %s scope %s", state, scope)
		}
	}
}

func TestDeriveCTAs_PendingApprovalScenario(t *testing.T) {
	b := productBundle(types.BundleTypeAutomationRun, types.BundleStatePendingApproval)
	got := DeriveCTAs(b, types.ViewerCapabilities{CanApply: true, CanGenerateDrafts: true, CanRequestApproval: true})
	assert.Equal(t, LabelViewDrafts, got.Primary)
	assert.Empty(t, got.Secondary)
	assert.Equal(t, "Awaiting owner approval", got.DisabledReason)
}

func TestDeriveCTAs_EveryStateHasPrimary(t *testing.T) {
	caps := []types.ViewerCapabilities{owner, editor, viewer}
	for _, bt := range types.AllBundleTypes() {
		for _, st := range types.AllBundleStates() {
			for _, vc := range caps {
				got := DeriveCTAs(productBundle(bt, st), vc)
				assert.NotEmpty(t, got.Primary, "%s/%s", bt, st)
			}
		}
	}
}

func TestApprovalSatisfied(t *testing.T) {
	b := productBundle(types.BundleTypeAutomationRun, types.BundleStateDraftsReady)
	assert.True(t, ApprovalSatisfied(b))

	b.Approval = &types.Approval{ApprovalRequired: false, ApprovalStatus: types.ApprovalStatusNotRequested}
	assert.True(t, ApprovalSatisfied(b))

	for status, want := range map[types.ApprovalStatus]bool{
		types.ApprovalStatusNotRequested: false,
		types.ApprovalStatusPending:      false,
		types.ApprovalStatusRejected:     false,
		types.ApprovalStatusApproved:     true,
	} {
		assert.Equal(t, want, ApprovalSatisfied(requireApproval(b, status)), string(status))
	}
}
