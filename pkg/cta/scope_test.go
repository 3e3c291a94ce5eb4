package cta

import (
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestExtractScopeAssetRefs(t *testing.T) {
	tests := []struct {
		name   string
		bundle types.ActionBundle
		want   []string
	}{
		{
			name: "products are not handle scoped",
			bundle: types.ActionBundle{
				BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PRODUCTS:proj1",
				BundleType:    types.BundleTypeAutomationRun,
				ScopeType:     types.ScopeTypeProducts,
				ScopeQueryRef: strPtr("page_handle:about-us"),
			},
			want: nil,
		},
		{
			name: "store wide is not handle scoped",
			bundle: types.ActionBundle{
				BundleType: types.BundleTypeAssetOptimization,
				ScopeType:  types.ScopeTypeStoreWide,
			},
			want: nil,
		},
		{
			name: "query ref is split and trimmed",
			bundle: types.ActionBundle{
				BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1",
				BundleType:    types.BundleTypeAutomationRun,
				ScopeType:     types.ScopeTypePages,
				ScopeQueryRef: strPtr(" page_handle:about-us , ,page_handle:contact,"),
			},
			want: []string{"page_handle:about-us", "page_handle:contact"},
		},
		{
			name: "query ref without marker falls back to bundle id",
			bundle: types.ActionBundle{
				BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:COLLECTIONS:proj1:collection_handle:summer",
				BundleType:    types.BundleTypeAutomationRun,
				ScopeType:     types.ScopeTypeCollections,
				ScopeQueryRef: strPtr("status=missing"),
			},
			want: []string{"collection_handle:summer"},
		},
		{
			name: "positional tail from bundle id",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:page_handle:about-us",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypePages,
			},
			want: []string{"page_handle:about-us"},
		},
		{
			name: "positional tail with several refs",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:page_handle:a,page_handle:b",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypePages,
			},
			want: []string{"page_handle:a", "page_handle:b"},
		},
		{
			name: "marker for the other scope does not count",
			bundle: types.ActionBundle{
				BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:collection_handle:summer",
				BundleType:    types.BundleTypeAutomationRun,
				ScopeType:     types.ScopeTypePages,
				ScopeQueryRef: strPtr("collection_handle:summer"),
			},
			want: nil,
		},
		{
			name: "short bundle id yields nothing",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypePages,
			},
			want: nil,
		},
		{
			name: "structured target wins",
			bundle: types.ActionBundle{
				BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:page_handle:old",
				BundleType:    types.BundleTypeAutomationRun,
				ScopeType:     types.ScopeTypePages,
				ScopeQueryRef: strPtr("page_handle:older"),
				Target: &types.BundleTarget{
					PlaybookID: "missing_seo_title",
					AssetType:  types.ScopeTypePages,
					ScopeRefs:  []string{"page_handle:new", " "},
				},
			},
			want: []string{"page_handle:new"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractScopeAssetRefs(tt.bundle))
		})
	}
}

func TestHasMissingScope(t *testing.T) {
	pagesNoRefs := types.ActionBundle{
		BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1",
		BundleType: types.BundleTypeAutomationRun,
		ScopeType:  types.ScopeTypePages,
	}
	assert.True(t, HasMissingScope(pagesNoRefs))

	withRefs := pagesNoRefs
	withRefs.ScopeQueryRef = strPtr("page_handle:about-us")
	assert.False(t, HasMissingScope(withRefs))

	onlyCommas := pagesNoRefs
	onlyCommas.ScopeQueryRef = strPtr(",")
	assert.True(t, HasMissingScope(onlyCommas))

	assetOpt := pagesNoRefs
	assetOpt.BundleType = types.BundleTypeAssetOptimization
	assert.False(t, HasMissingScope(assetOpt))

	products := pagesNoRefs
	products.ScopeType = types.ScopeTypeProducts
	assert.False(t, HasMissingScope(products))
}
