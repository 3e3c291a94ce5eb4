package drafts

import (
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/sourcegraph/go-diff/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	drafts := []types.Draft{
		{AssetHandle: "faq", Field: types.DraftFieldSEODescription, CurrentValue: "", ProposedValue: "Answers to common questions"},
		{AssetHandle: "about-us", Field: types.DraftFieldSEOTitle, CurrentValue: "About", ProposedValue: "About Us | Acme"},
		{AssetHandle: "faq", Field: types.DraftFieldSEOTitle, CurrentValue: "FAQ", ProposedValue: "FAQ"},
	}

	got, err := Preview(drafts)
	require.NoError(t, err)

	want := `--- a/about-us
+++ b/about-us
@@ -1,1 +1,1 @@
-seo_title: About
+seo_title: About Us | Acme
--- a/faq
+++ b/faq
@@ -1,2 +1,2 @@
 seo_title: FAQ
-seo_description: 
+seo_description: Answers to common questions
`
	assert.Equal(t, want, got)

	parsed, err := diff.ParseMultiFileDiff([]byte(got))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "a/about-us", parsed[0].OrigName)
	assert.Equal(t, "b/faq", parsed[1].NewName)

	assert.Equal(t, 2, Changed(drafts))
}

func TestPreviewNoChanges(t *testing.T) {
	got, err := Preview([]types.Draft{
		{AssetHandle: "faq", Field: types.DraftFieldSEOTitle, CurrentValue: "FAQ", ProposedValue: "FAQ"},
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Preview(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, Changed(nil))
}
