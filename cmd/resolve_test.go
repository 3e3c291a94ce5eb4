package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFile(t *testing.T) {
	resolutions, err := resolveFile(filepath.Join(testhelpers.TestdataDir(), "resolve", "viewer-queue.yaml"))
	require.NoError(t, err)
	require.Len(t, resolutions, 3)

	assert.Equal(t, cta.LabelViewDetails, resolutions[0].Primary)
	assert.Equal(t, cta.ReasonCannotGenerateDrafts, resolutions[0].DisabledReason)
	assert.Equal(t, "/projects/proj-demo/automation/playbooks?playbookId=missing_seo_title&assetType=PAGES&scopeAssetRefs=page_handle:about-us", resolutions[0].Route)

	assert.True(t, resolutions[1].MissingScope)
	assert.Equal(t, cta.ReasonMissingScope, resolutions[1].DisabledReason)
	assert.Equal(t, "/projects/proj-demo/automation/playbooks?playbookId=missing_seo_description&assetType=COLLECTIONS", resolutions[1].Route)

	assert.Equal(t, cta.LabelViewExportOptions, resolutions[2].Primary)
	assert.Equal(t, "/projects/proj-demo/insights/geo-insights", resolutions[2].Route)
}

func TestResolveFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	body := `{
  "projectId": "p1",
  "viewer": {"canGenerateDrafts": true},
  "bundles": [{
    "bundleId": "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PRODUCTS:p1",
    "bundleType": "AUTOMATION_RUN",
    "scopeType": "PRODUCTS",
    "scopeCount": 4,
    "state": "NEW",
    "recommendedActionKey": "FIX_MISSING_METADATA"
  }]
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	resolutions, err := resolveFile(path)
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, cta.LabelGenerateDrafts, resolutions[0].Primary)
	assert.Equal(t, "/projects/p1/automation/playbooks?playbookId=missing_seo_title", resolutions[0].Route)
}

func TestResolveFileMissing(t *testing.T) {
	_, err := resolveFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPrintResolutions(t *testing.T) {
	color.NoColor = true

	resolutions := []cta.Resolution{{
		BundleID: "b1",
		CTAs:     cta.CTAs{Primary: cta.LabelViewDetails, DisabledReason: cta.ReasonMissingScope},
		Route:    "/projects/p1/issues",
	}}

	var text bytes.Buffer
	require.NoError(t, printResolutions(&text, resolutions, "text"))
	assert.Equal(t, "b1\n  View Details ("+cta.ReasonMissingScope+")\n  /projects/p1/issues\n", text.String())

	var out bytes.Buffer
	require.NoError(t, printResolutions(&out, resolutions, "json"))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "View Details", decoded[0]["primaryCta"])

	assert.Error(t, printResolutions(&out, resolutions, "xml"))
}
