package cta

import (
	"strings"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

// BundleRef is the positional decoding of a bundle id:
//
//	BUNDLE_TYPE:ACTION_KEY:PLAYBOOK_ID:ASSET_TYPE:PROJECT_ID[:SCOPE_REF...]
//
// Scope refs may themselves contain colons, so everything from the sixth
// segment on is kept together.
type BundleRef struct {
	BundleType types.BundleType
	ActionKey  types.RecommendedActionKey
	PlaybookID string
	AssetType  types.ScopeType
	ProjectID  string
	ScopeRef   string
}

// ParseBundleID never fails; absent segments come back empty.
func ParseBundleID(bundleID string) BundleRef {
	parts := strings.Split(bundleID, ":")
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	ref := BundleRef{
		BundleType: types.BundleType(at(0)),
		ActionKey:  types.RecommendedActionKey(at(1)),
		PlaybookID: at(2),
		AssetType:  types.ScopeType(at(3)),
		ProjectID:  at(4),
	}
	if len(parts) > 5 {
		ref.ScopeRef = strings.Join(parts[5:], ":")
	}
	return ref
}

// PlaybookTarget returns the playbook and asset type an automation bundle runs,
// preferring the structured target over the id.
func PlaybookTarget(b types.ActionBundle) (string, types.ScopeType) {
	playbookID, assetType := "", types.ScopeType("")
	if b.Target != nil {
		playbookID, assetType = b.Target.PlaybookID, b.Target.AssetType
	}
	if playbookID == "" || assetType == "" {
		ref := ParseBundleID(b.BundleID)
		if playbookID == "" {
			playbookID = ref.PlaybookID
		}
		if assetType == "" {
			assetType = ref.AssetType
		}
	}

	if playbookID == "" {
		playbookID = defaultPlaybookID
	}
	if assetType == "" {
		assetType = types.ScopeTypeProducts
	}
	return playbookID, assetType
}
