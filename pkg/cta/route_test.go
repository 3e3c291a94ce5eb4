package cta

import (
	"net/url"
	"strings"
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCTARoute(t *testing.T) {
	tests := []struct {
		name   string
		bundle types.ActionBundle
		want   string
	}{
		{
			name:   "geo export",
			bundle: productBundle(types.BundleTypeGeoExport, types.BundleStateNew),
			want:   "/projects/proj1/insights/geo-insights",
		},
		{
			name:   "asset optimization on products, metadata",
			bundle: productBundle(types.BundleTypeAssetOptimization, types.BundleStateNew),
			want:   "/projects/proj1/issues?pillar=metadata_snippet_quality",
		},
		{
			name: "asset optimization on products, unknown key",
			bundle: types.ActionBundle{
				BundleType:           types.BundleTypeAssetOptimization,
				ScopeType:            types.ScopeTypeProducts,
				RecommendedActionKey: types.ActionKeyShareLinkGovernance,
			},
			want: "/projects/proj1/issues",
		},
		{
			name: "asset optimization on pages",
			bundle: types.ActionBundle{
				BundleType:           types.BundleTypeAssetOptimization,
				ScopeType:            types.ScopeTypePages,
				RecommendedActionKey: types.ActionKeyOptimizeContent,
			},
			want: "/projects/proj1/assets/pages?actionKey=OPTIMIZE_CONTENT",
		},
		{
			name: "asset optimization on collections without key",
			bundle: types.ActionBundle{
				BundleType: types.BundleTypeAssetOptimization,
				ScopeType:  types.ScopeTypeCollections,
			},
			want: "/projects/proj1/assets/collections",
		},
		{
			name: "asset optimization store wide goes to issues",
			bundle: types.ActionBundle{
				BundleType:           types.BundleTypeAssetOptimization,
				ScopeType:            types.ScopeTypeStoreWide,
				RecommendedActionKey: types.ActionKeyResolveTechnicalIssues,
			},
			want: "/projects/proj1/issues?pillar=technical_indexability",
		},
		{
			name:   "automation run on products",
			bundle: productBundle(types.BundleTypeAutomationRun, types.BundleStateNew),
			want:   "/projects/proj1/automation/playbooks?playbookId=missing_seo_title",
		},
		{
			name: "automation run with short id uses defaults",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypeProducts,
			},
			want: "/projects/proj1/automation/playbooks?playbookId=missing_seo_title",
		},
		{
			name: "automation run on pages from bundle id",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:page_handle:about-us",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypePages,
			},
			want: "/projects/proj1/automation/playbooks?playbookId=missing_seo_title&assetType=PAGES&scopeAssetRefs=page_handle:about-us",
		},
		{
			name: "automation run on collections without refs",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_description:COLLECTIONS:proj1",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypeCollections,
			},
			want: "/projects/proj1/automation/playbooks?playbookId=missing_seo_description&assetType=COLLECTIONS",
		},
		{
			name: "structured target wins over id",
			bundle: types.ActionBundle{
				BundleID:   "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PRODUCTS:proj1",
				BundleType: types.BundleTypeAutomationRun,
				ScopeType:  types.ScopeTypeCollections,
				Target: &types.BundleTarget{
					PlaybookID: "missing_seo_description",
					AssetType:  types.ScopeTypeCollections,
					ScopeRefs:  []string{"collection_handle:summer", "collection_handle:winter"},
				},
			},
			want: "/projects/proj1/automation/playbooks?playbookId=missing_seo_description&assetType=COLLECTIONS&scopeAssetRefs=collection_handle:summer,collection_handle:winter",
		},
		{
			name: "unknown bundle type falls back to issues",
			bundle: types.ActionBundle{
				BundleType:           types.BundleType("CONTENT_AUDIT"),
				RecommendedActionKey: types.ActionKeyImproveSearchIntent,
			},
			want: "/projects/proj1/issues?pillar=search_intent_fit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCTARoute(tt.bundle, "proj1"))
		})
	}
}

func TestGetCTARoute_EscapesValues(t *testing.T) {
	b := types.ActionBundle{
		BundleType:    types.BundleTypeAutomationRun,
		BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1",
		ScopeType:     types.ScopeTypePages,
		ScopeQueryRef: strPtr("page_handle:a&b=c"),
	}
	route := GetCTARoute(b, "proj 1")
	assert.True(t, strings.HasPrefix(route, "/projects/proj%201/automation/playbooks?"), route)

	u, err := url.Parse(route)
	require.NoError(t, err)
	assert.Equal(t, "page_handle:a&b=c", u.Query().Get("scopeAssetRefs"))
}

func TestGetCTARoute_ScopeRefsRoundTrip(t *testing.T) {
	b := types.ActionBundle{
		BundleID:      "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1",
		BundleType:    types.BundleTypeAutomationRun,
		ScopeType:     types.ScopeTypePages,
		ScopeQueryRef: strPtr("page_handle:about-us,page_handle:contact"),
	}

	refs := ExtractScopeAssetRefs(b)
	require.Equal(t, []string{"page_handle:about-us", "page_handle:contact"}, refs)

	u, err := url.Parse(GetCTARoute(b, "proj1"))
	require.NoError(t, err)
	assert.Equal(t, refs, strings.Split(u.Query().Get("scopeAssetRefs"), ","))
}

func TestPillarForActionKey(t *testing.T) {
	for _, key := range types.AllRecommendedActionKeys() {
		p, ok := PillarForActionKey(key)
		if key == types.ActionKeyShareLinkGovernance {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok, string(key))
		assert.NotEmpty(t, p)
	}
}

func TestParseBundleID(t *testing.T) {
	ref := ParseBundleID("AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj1:page_handle:about-us")
	assert.Equal(t, BundleRef{
		BundleType: types.BundleTypeAutomationRun,
		ActionKey:  types.ActionKeyFixMissingMetadata,
		PlaybookID: "missing_seo_title",
		AssetType:  types.ScopeTypePages,
		ProjectID:  "proj1",
		ScopeRef:   "page_handle:about-us",
	}, ref)

	short := ParseBundleID("GEO_EXPORT:SHARE_LINK_GOVERNANCE")
	assert.Equal(t, types.BundleTypeGeoExport, short.BundleType)
	assert.Empty(t, short.PlaybookID)
	assert.Empty(t, short.ScopeRef)

	assert.Equal(t, BundleRef{}, ParseBundleID(""))
}
