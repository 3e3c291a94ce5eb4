package cta

import (
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

// CTAs is what a work queue card shows. Empty strings mean "none".
// Primary is never empty.
type CTAs struct {
	Primary        string `json:"primaryCta"`
	Secondary      string `json:"secondaryCta,omitempty"`
	DisabledReason string `json:"disabledReason,omitempty"`
}

// DeriveCTAs picks the call-to-action labels for a bundle as seen by one viewer.
// The first matching rule wins: missing scope, then GEO export, then state.
func DeriveCTAs(b types.ActionBundle, viewer types.ViewerCapabilities) CTAs {
	if HasMissingScope(b) {
		return CTAs{Primary: LabelViewDetails, DisabledReason: ReasonMissingScope}
	}

	if b.BundleType == types.BundleTypeGeoExport {
		return CTAs{Primary: LabelViewExportOptions}
	}

	switch b.State {
	case types.BundleStateNew:
		if b.BundleType != types.BundleTypeAutomationRun {
			return CTAs{Primary: LabelViewIssues}
		}
		if viewer.CanGenerateDrafts {
			return CTAs{Primary: LabelGenerateDrafts}
		}
		return CTAs{Primary: LabelViewDetails, DisabledReason: ReasonCannotGenerateDrafts}

	case types.BundleStatePreviewed:
		if viewer.CanGenerateDrafts {
			return CTAs{Primary: LabelGenerateFull, Secondary: LabelViewPreview}
		}
		return CTAs{Primary: LabelViewPreview, Secondary: LabelViewPreview, DisabledReason: ReasonCannotGenerateDrafts}

	case types.BundleStateDraftsReady:
		if !ApprovalSatisfied(b) {
			primary := LabelViewDrafts
			if viewer.CanRequestApproval {
				primary = LabelRequestApproval
			}
			return CTAs{Primary: primary, Secondary: LabelViewDrafts, DisabledReason: ReasonApprovalRequired}
		}
		return applyCTAs(viewer)

	case types.BundleStatePendingApproval:
		if viewer.CanApprove {
			return CTAs{Primary: LabelApproveAndApply, Secondary: LabelReject}
		}
		return CTAs{Primary: LabelViewDrafts, DisabledReason: ReasonAwaitingApproval}

	case types.BundleStateApproved:
		return applyCTAs(viewer)

	case types.BundleStateApplied:
		return CTAs{Primary: LabelViewResults}

	case types.BundleStateFailed:
		if viewer.CanGenerateDrafts {
			return CTAs{Primary: LabelRetry, Secondary: LabelViewError}
		}
		return CTAs{Primary: LabelViewDetails, Secondary: LabelViewError, DisabledReason: ReasonCannotGenerateDrafts}

	case types.BundleStateBlocked:
		return CTAs{Primary: LabelViewDetails, DisabledReason: ReasonBlocked}
	}

	return CTAs{Primary: LabelViewDetails}
}

func applyCTAs(viewer types.ViewerCapabilities) CTAs {
	if viewer.CanApply {
		return CTAs{Primary: LabelApplyChanges, Secondary: LabelViewDrafts}
	}
	return CTAs{Primary: LabelViewDrafts, Secondary: LabelViewDrafts, DisabledReason: ReasonCannotApply}
}

// ApprovalSatisfied is true when nothing stands between the bundle's drafts and apply.
func ApprovalSatisfied(b types.ActionBundle) bool {
	if b.Approval == nil || !b.Approval.ApprovalRequired {
		return true
	}
	return b.Approval.ApprovalStatus == types.ApprovalStatusApproved
}
