package workqueue

import (
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
)

func TestFieldForPlaybook(t *testing.T) {
	tests := []struct {
		playbookID string
		want       types.DraftField
		wantOK     bool
	}{
		{"missing_seo_title", types.DraftFieldSEOTitle, true},
		{"missing_seo_description", types.DraftFieldSEODescription, true},
		{"fix_alt_text", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.playbookID, func(t *testing.T) {
			got, ok := FieldForPlaybook(tt.playbookID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleFromRef(t *testing.T) {
	assert.Equal(t, "about-us", HandleFromRef("page_handle:about-us"))
	assert.Equal(t, "summer", HandleFromRef("collection_handle:summer"))
	assert.Equal(t, "plain", HandleFromRef("plain"))
	assert.Equal(t, "a:b", HandleFromRef("page_handle:a:b"))
}

func TestNullableJSON(t *testing.T) {
	var target *types.BundleTarget
	b, err := marshalNullable(target)
	assert.NoError(t, err)
	assert.Nil(t, b)

	var out *types.BundleTarget
	assert.NoError(t, unmarshalNullable([]byte("null"), &out))
	assert.Nil(t, out)

	assert.NoError(t, unmarshalNullable([]byte(`{"playbookId":"missing_seo_title","assetType":"PAGES"}`), &out))
	if assert.NotNil(t, out) {
		assert.Equal(t, "missing_seo_title", out.PlaybookID)
		assert.Equal(t, types.ScopeTypePages, out.AssetType)
	}

	assert.Nil(t, nullableString(""))
	assert.Equal(t, "x", *nullableString("x"))
}
