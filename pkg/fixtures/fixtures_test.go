package fixtures

import (
	"path/filepath"
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/testhelpers"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDemoFixture(t *testing.T) {
	f, err := Load(filepath.Join(testhelpers.TestdataDir(), "fixtures", "demo-store.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "proj-demo", f.Project.ID)
	assert.Len(t, f.Members, 3)
	require.NotEmpty(t, f.Bundles)

	for _, a := range f.Assets {
		assert.Equal(t, "proj-demo", a.ProjectID, a.Handle)
	}
	for _, b := range f.Bundles {
		assert.Equal(t, "proj-demo", b.ProjectID, b.BundleID)
		assert.Equal(t, "proj-demo", cta.ParseBundleID(b.BundleID).ProjectID, b.BundleID)
	}

	owner, ok := f.Member(types.MemberRoleOwner)
	require.True(t, ok)
	assert.Equal(t, "u-olive", owner.UserID)

	first := f.Bundles[0]
	assert.Equal(t, types.BundleTypeAutomationRun, first.BundleType)
	require.NotNil(t, first.ScopeQueryRef)
	assert.Equal(t, []string{"page_handle:about-us", "page_handle:shipping-policy"}, cta.ExtractScopeAssetRefs(first))
	require.NotNil(t, first.Approval)
	assert.True(t, first.Approval.ApprovalRequired)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("project: {}\n"))
	assert.ErrorContains(t, err, "no project id")

	_, err = Parse([]byte("project: {id: p1}\nbundles:\n  - bundleType: GEO_EXPORT\n"))
	assert.ErrorContains(t, err, "no bundleId")

	_, err = Parse([]byte("project: {id: p1}\nmembers:\n  - userId: u1\n    role: ADMIN\n"))
	assert.ErrorContains(t, err, "unknown role")

	_, err = Parse([]byte("project: [\n"))
	assert.Error(t, err)
}
