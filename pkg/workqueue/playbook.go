package workqueue

import (
	"strings"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var playbookFields = map[string]types.DraftField{
	"missing_seo_title":       types.DraftFieldSEOTitle,
	"missing_seo_description": types.DraftFieldSEODescription,
}

// FieldForPlaybook is the asset field a playbook drafts values for.
func FieldForPlaybook(playbookID string) (types.DraftField, bool) {
	f, ok := playbookFields[playbookID]
	return f, ok
}

// HandleFromRef strips the page_handle: / collection_handle: marker from a scope ref.
func HandleFromRef(ref string) string {
	if i := strings.Index(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
