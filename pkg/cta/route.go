package cta

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

// Pillar ids used to filter the Issues view.
type Pillar string

const (
	PillarMetadataSnippetQuality Pillar = "metadata_snippet_quality"
	PillarTechnicalIndexability  Pillar = "technical_indexability"
	PillarSearchIntentFit        Pillar = "search_intent_fit"
	PillarContentCommerceSignals Pillar = "content_commerce_signals"
)

var pillarByActionKey = map[types.RecommendedActionKey]Pillar{
	types.ActionKeyFixMissingMetadata:     PillarMetadataSnippetQuality,
	types.ActionKeyResolveTechnicalIssues: PillarTechnicalIndexability,
	types.ActionKeyImproveSearchIntent:    PillarSearchIntentFit,
	types.ActionKeyOptimizeContent:        PillarContentCommerceSignals,
}

// PillarForActionKey returns the Issues filter for an action key, if there is one.
func PillarForActionKey(key types.RecommendedActionKey) (Pillar, bool) {
	p, ok := pillarByActionKey[key]
	return p, ok
}

// GetCTARoute returns the app-relative destination for a bundle's CTA.
func GetCTARoute(b types.ActionBundle, projectID string) string {
	base := "/projects/" + url.PathEscape(projectID)

	switch b.BundleType {
	case types.BundleTypeGeoExport:
		return base + "/insights/geo-insights"

	case types.BundleTypeAutomationRun:
		playbookID, assetType := PlaybookTarget(b)
		q := query{}
		q.add("playbookId", playbookID)
		if assetType != types.ScopeTypeProducts {
			q.add("assetType", string(assetType))
			if refs := ExtractScopeAssetRefs(b); len(refs) > 0 {
				q.add("scopeAssetRefs", strings.Join(refs, ","))
			}
		}
		return base + "/automation/playbooks" + q.String()

	case types.BundleTypeAssetOptimization:
		switch b.ScopeType {
		case types.ScopeTypePages, types.ScopeTypeCollections:
			q := query{}
			if b.RecommendedActionKey != "" {
				q.add("actionKey", string(b.RecommendedActionKey))
			}
			return fmt.Sprintf("%s/assets/%s%s", base, strings.ToLower(string(b.ScopeType)), q.String())
		}
	}

	return issuesRoute(base, b.RecommendedActionKey)
}

func issuesRoute(base string, key types.RecommendedActionKey) string {
	pillar, ok := PillarForActionKey(key)
	if !ok {
		return base + "/issues"
	}
	q := query{}
	q.add("pillar", string(pillar))
	return base + "/issues" + q.String()
}

// query keeps parameters in insertion order. Colons and commas are left
// readable since handle refs are made of them and both are legal in a query.
type query [][2]string

func (q *query) add(key, value string) {
	*q = append(*q, [2]string{key, value})
}

var queryUnescaper = strings.NewReplacer("%3A", ":", "%2C", ",")

func (q query) String() string {
	if len(q) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, kv := range q {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv[0]))
		sb.WriteByte('=')
		sb.WriteString(queryUnescaper.Replace(url.QueryEscape(kv[1])))
	}
	return sb.String()
}
