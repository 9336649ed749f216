package fixes

import (
	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
)

// blockEntityIDs rewrites legacy block entity identifiers to namespaced
// ones. Identifiers missing from the table are already namespaced.
func blockEntityIDs() *df.DataFix {
	return df.NewFix("BlockEntityIdFix", 704, true).
		Everywhere(BlockEntity, df.Total(func(v dynamic.Value) dynamic.Value {
			id, ok := legacyBlockEntityIDs[v.GetString("id", "")]
			if !ok {
				return v
			}
			return v.Set("id", dynamic.String(id))
		})).
		MustBuild()
}
