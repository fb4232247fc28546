package hierarchy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

// TreeNode is one position in a universe's derived hierarchy. The forest is
// rebuilt from the flat edge set on demand and never persisted.
type TreeNode struct {
	ContentID uuid.UUID   `json:"content_id"`
	Children  []*TreeNode `json:"children"`
}

// BuildTree assembles the rooted forest for one universe from its edge set.
// Roots are parent ids that never occur as a child id, ordered by the parent
// node's creation time. Each parent's children order by DisplayOrder, ties by
// the child node's creation time. Content referenced by no edge at all is
// excluded from the forest; callers surface it through the unorganised list.
//
// Edges whose child or parent id does not resolve in nodesByID are dropped
// rather than failing the build. The edge set is expected to be acyclic; a
// repeated id on the current expansion path is truncated so a corrupt edge
// set cannot recurse forever.
func BuildTree(edges []*types.ContentRelationship, nodesByID map[uuid.UUID]*types.ContentNode) []*TreeNode {
	childEdges := make(map[uuid.UUID][]*types.ContentRelationship)
	isChild := make(map[uuid.UUID]bool)
	for _, edge := range edges {
		if edge == nil {
			continue
		}
		if nodesByID[edge.ChildID] == nil || nodesByID[edge.ParentID] == nil {
			continue
		}
		childEdges[edge.ParentID] = append(childEdges[edge.ParentID], edge)
		isChild[edge.ChildID] = true
	}

	for parentID := range childEdges {
		siblings := childEdges[parentID]
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].DisplayOrder != siblings[j].DisplayOrder {
				return siblings[i].DisplayOrder < siblings[j].DisplayOrder
			}
			childI := nodesByID[siblings[i].ChildID]
			childJ := nodesByID[siblings[j].ChildID]
			return childI.CreatedAt.Before(childJ.CreatedAt)
		})
	}

	var rootIDs []uuid.UUID
	for parentID := range childEdges {
		if !isChild[parentID] {
			rootIDs = append(rootIDs, parentID)
		}
	}
	sort.SliceStable(rootIDs, func(i, j int) bool {
		return nodesByID[rootIDs[i]].CreatedAt.Before(nodesByID[rootIDs[j]].CreatedAt)
	})

	forest := make([]*TreeNode, 0, len(rootIDs))
	for _, rootID := range rootIDs {
		visited := map[uuid.UUID]bool{}
		forest = append(forest, expandNode(rootID, childEdges, visited))
	}
	return forest
}

func expandNode(contentID uuid.UUID, childEdges map[uuid.UUID][]*types.ContentRelationship, visited map[uuid.UUID]bool) *TreeNode {
	visited[contentID] = true
	node := &TreeNode{ContentID: contentID, Children: []*TreeNode{}}
	for _, edge := range childEdges[contentID] {
		if visited[edge.ChildID] {
			// cycle in the edge set; truncate instead of looping
			continue
		}
		node.Children = append(node.Children, expandNode(edge.ChildID, childEdges, visited))
	}
	delete(visited, contentID)
	return node
}
