// Package cleanup provides the rule pack for unused-resource hygiene.
// It follows the same convention as the cost pack: a single New() returning
// the rules in evaluation order.
package cleanup

import "github.com/costwise/costwise/internal/rules"

// New returns all cleanup rules in the order they should be evaluated.
func New() []any {
	return []any{
		rules.StoppedResourceRule{},
		rules.OldSnapshotRule{},
		rules.UnusedIPRule{},
	}
}
