package cta

import (
	"strings"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

// ExtractScopeAssetRefs returns the handle refs a PAGES or COLLECTIONS bundle
// targets, in the order the backend listed them.
//
// nil means either the bundle is not handle-scoped (no constraint) or no
// deterministic refs could be found. HasMissingScope tells the two apart.
func ExtractScopeAssetRefs(b types.ActionBundle) []string {
	marker, ok := handleMarker(b.ScopeType)
	if !ok {
		return nil
	}

	if b.Target != nil && len(b.Target.ScopeRefs) > 0 {
		return splitRefs(strings.Join(b.Target.ScopeRefs, ","))
	}

	if b.ScopeQueryRef != nil && strings.Contains(*b.ScopeQueryRef, marker) {
		return splitRefs(*b.ScopeQueryRef)
	}

	segments := strings.Split(b.BundleID, ":")
	if len(segments) >= 6 {
		tail := strings.Join(segments[5:], ":")
		if strings.Contains(tail, marker) {
			return splitRefs(tail)
		}
	}

	return nil
}

// HasMissingScope is true when an automation run over pages or collections has
// no handles to run against. Such a bundle must not offer any action.
func HasMissingScope(b types.ActionBundle) bool {
	if b.BundleType != types.BundleTypeAutomationRun {
		return false
	}
	if !b.ScopeType.IsHandleScoped() {
		return false
	}
	return len(ExtractScopeAssetRefs(b)) == 0
}

func handleMarker(scope types.ScopeType) (string, bool) {
	switch scope {
	case types.ScopeTypePages:
		return pageHandleMarker, true
	case types.ScopeTypeCollections:
		return collectionHandleMarker, true
	}
	return "", false
}

func splitRefs(s string) []string {
	refs := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refs = append(refs, part)
	}
	return refs
}
