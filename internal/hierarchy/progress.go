package hierarchy

import (
	"math"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

// ProgressEpsilon is the tolerance, in percentage points, below which a
// stored aggregate and its recomputed expectation count as equal.
const ProgressEpsilon = 1

// ClampProgress forces a progress value into 0..100.
func ClampProgress(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// AggregatedProgressFor computes an organisational node's aggregate: the
// rounded mean over every viewable descendant, where a descendant with no
// progress value contributes 0. A node with zero viewable descendants has no
// aggregate at all (nil), which callers must keep distinct from 0%.
func AggregatedProgressFor(node *TreeNode, nodesByID map[uuid.UUID]*types.ContentNode) *int {
	viewable := viewableDescendants(node, nodesByID)
	if len(viewable) == 0 {
		return nil
	}
	sum := 0
	for _, leaf := range viewable {
		if leaf.Progress != nil {
			sum += *leaf.Progress
		}
	}
	mean := roundMean(sum, len(viewable))
	return &mean
}

// viewableDescendants flattens the subtree below node to its viewable
// content. Aggregation always averages at leaf level rather than averaging
// the averages of intermediate groups.
func viewableDescendants(node *TreeNode, nodesByID map[uuid.UUID]*types.ContentNode) []*types.ContentNode {
	var result []*types.ContentNode
	for _, child := range node.Children {
		childNode := nodesByID[child.ContentID]
		if childNode != nil && childNode.IsViewable {
			result = append(result, childNode)
		}
		result = append(result, viewableDescendants(child, nodesByID)...)
	}
	return result
}

// UniverseRollup is the rounded mean progress over every viewable node in
// the universe, counting missing progress as 0. A universe with no viewable
// content rolls up to 0, unlike the nil aggregate of an empty organisational
// node; the asymmetry is deliberate and callers depend on it.
func UniverseRollup(nodes []*types.ContentNode) int {
	sum := 0
	count := 0
	for _, node := range nodes {
		if node == nil || !node.IsViewable {
			continue
		}
		count++
		if node.Progress != nil {
			sum += *node.Progress
		}
	}
	if count == 0 {
		return 0
	}
	return roundMean(sum, count)
}

// WithinEpsilon reports whether two progress values agree within
// ProgressEpsilon percentage points.
func WithinEpsilon(a, b int) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= ProgressEpsilon
}

func roundMean(sum, count int) int {
	return int(math.Round(float64(sum) / float64(count)))
}
