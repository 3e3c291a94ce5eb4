package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesForRole(t *testing.T) {
	assert.Equal(t, ViewerCapabilities{CanApply: true, CanApprove: true, CanGenerateDrafts: true, CanRequestApproval: true}, CapabilitiesForRole(MemberRoleOwner))
	assert.Equal(t, ViewerCapabilities{CanGenerateDrafts: true, CanRequestApproval: true}, CapabilitiesForRole(MemberRoleEditor))
	assert.Equal(t, ViewerCapabilities{}, CapabilitiesForRole(MemberRoleViewer))
	assert.Equal(t, ViewerCapabilities{}, CapabilitiesForRole(MemberRole("BILLING")))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BundleStateNew, BundleStateDraftsReady))
	assert.True(t, CanTransition(BundleStateDraftsReady, BundleStatePendingApproval))
	assert.True(t, CanTransition(BundleStatePendingApproval, BundleStateApproved))
	assert.True(t, CanTransition(BundleStatePendingApproval, BundleStateDraftsReady))
	assert.True(t, CanTransition(BundleStateApproved, BundleStateApplied))
	assert.True(t, CanTransition(BundleStateApproved, BundleStateBlocked), "expired drafts block an approved bundle")
	assert.True(t, CanTransition(BundleStateFailed, BundleStateDraftsReady))
	assert.True(t, CanTransition(BundleStateNew, BundleStateFailed))

	assert.False(t, CanTransition(BundleStateNew, BundleStateApplied))
	assert.False(t, CanTransition(BundleStatePendingApproval, BundleStateApplied))
	assert.False(t, CanTransition(BundleState("UNKNOWN"), BundleStateNew))

	for _, s := range AllBundleStates() {
		assert.False(t, CanTransition(BundleStateApplied, s), "applied -> %s", s)
		assert.False(t, CanTransition(s, s), "%s -> %s", s, s)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range AllBundleStates() {
		assert.Equal(t, s == BundleStateApplied, s.IsTerminal(), string(s))
	}
	assert.False(t, BundleState("UNKNOWN").IsTerminal())
}

func TestActionBundleJSON(t *testing.T) {
	raw := `{
		"bundleId": "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1",
		"bundleType": "AUTOMATION_RUN",
		"scopeType": "PAGES",
		"scopeCount": 2,
		"scopeQueryRef": "page_handle:about-us,page_handle:contact",
		"state": "DRAFTS_READY",
		"approval": {"approvalRequired": true, "approvalStatus": "PENDING"},
		"recommendedActionKey": "FIX_MISSING_METADATA",
		"health": "CRITICAL"
	}`

	var b ActionBundle
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, BundleTypeAutomationRun, b.BundleType)
	assert.Equal(t, ScopeTypePages, b.ScopeType)
	require.NotNil(t, b.ScopeQueryRef)
	require.NotNil(t, b.Approval)
	assert.Equal(t, ApprovalStatusPending, b.Approval.ApprovalStatus)
	assert.Nil(t, b.Target)
	assert.Equal(t, BundleHealthCritical, b.Health)
}
