package drafts

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/sourcegraph/go-diff/diff"
)

var fieldOrder = map[types.DraftField]int{
	types.DraftFieldSEOTitle:       0,
	types.DraftFieldSEODescription: 1,
}

// FileDiffs builds one unified diff per asset, comparing the current and
// proposed value of every drafted field. Assets whose drafts change nothing
// are left out.
func FileDiffs(drafts []types.Draft) []*diff.FileDiff {
	byHandle := map[string][]types.Draft{}
	handles := []string{}
	for _, d := range drafts {
		if _, ok := byHandle[d.AssetHandle]; !ok {
			handles = append(handles, d.AssetHandle)
		}
		byHandle[d.AssetHandle] = append(byHandle[d.AssetHandle], d)
	}
	sort.Strings(handles)

	fileDiffs := []*diff.FileDiff{}
	for _, handle := range handles {
		fields := byHandle[handle]
		sort.SliceStable(fields, func(i, j int) bool {
			return fieldOrder[fields[i].Field] < fieldOrder[fields[j].Field]
		})

		var body bytes.Buffer
		changed := false
		for _, d := range fields {
			if d.CurrentValue == d.ProposedValue {
				fmt.Fprintf(&body, " %s: %s\n", d.Field, d.CurrentValue)
				continue
			}
			changed = true
			fmt.Fprintf(&body, "-%s: %s\n", d.Field, d.CurrentValue)
			fmt.Fprintf(&body, "+%s: %s\n", d.Field, d.ProposedValue)
		}
		if !changed {
			continue
		}

		n := int32(len(fields))
		fileDiffs = append(fileDiffs, &diff.FileDiff{
			OrigName: "a/" + handle,
			NewName:  "b/" + handle,
			Hunks: []*diff.Hunk{
				{
					OrigStartLine: 1,
					OrigLines:     n,
					NewStartLine:  1,
					NewLines:      n,
					Body:          body.Bytes(),
				},
			},
		})
	}

	return fileDiffs
}

// Preview renders drafts as a multi-file unified diff, one file per asset.
func Preview(drafts []types.Draft) (string, error) {
	fileDiffs := FileDiffs(drafts)
	if len(fileDiffs) == 0 {
		return "", nil
	}

	b, err := diff.PrintMultiFileDiff(fileDiffs)
	if err != nil {
		return "", fmt.Errorf("failed to print diff: %w", err)
	}
	return string(b), nil
}

// Changed counts the fields whose proposed value differs from the current one.
func Changed(drafts []types.Draft) int {
	stat := diff.Stat{}
	for _, fd := range FileDiffs(drafts) {
		s := fd.Stat()
		stat.Added += s.Added
		stat.Changed += s.Changed
		stat.Deleted += s.Deleted
	}
	return int(stat.Changed + stat.Added)
}
