package cta

import (
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

// Resolution is everything the work queue card needs about one bundle for one viewer.
type Resolution struct {
	BundleID string `json:"bundleId"`
	CTAs
	Route             string   `json:"route"`
	ScopeAssetRefs    []string `json:"scopeAssetRefs,omitempty"`
	MissingScope      bool     `json:"missingScope"`
	ApprovalSatisfied bool     `json:"approvalSatisfied"`
}

func Resolve(b types.ActionBundle, viewer types.ViewerCapabilities, projectID string) Resolution {
	if projectID == "" {
		projectID = b.ProjectID
	}
	return Resolution{
		BundleID:          b.BundleID,
		CTAs:              DeriveCTAs(b, viewer),
		Route:             GetCTARoute(b, projectID),
		ScopeAssetRefs:    ExtractScopeAssetRefs(b),
		MissingScope:      HasMissingScope(b),
		ApprovalSatisfied: ApprovalSatisfied(b),
	}
}

func ResolveAll(bundles []types.ActionBundle, viewer types.ViewerCapabilities, projectID string) []Resolution {
	resolved := make([]Resolution, 0, len(bundles))
	for _, b := range bundles {
		resolved = append(resolved, Resolve(b, viewer, projectID))
	}
	return resolved
}
