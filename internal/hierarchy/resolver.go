package hierarchy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

// ChildrenAt lists the content shown at one level of the hierarchy. A nil
// level id (uuid.Nil) is the top level: every forest root plus every
// unorganised node, both in creation order. For an organisational node it is
// that node's direct tree children in sibling order. Unknown ids and viewable
// nodes resolve to an empty list.
func ChildrenAt(forest []*TreeNode, nodesByID map[uuid.UUID]*types.ContentNode, levelID uuid.UUID) []*types.ContentNode {
	if levelID == uuid.Nil {
		return topLevel(forest, nodesByID)
	}

	treeNode := FindNode(forest, levelID)
	if treeNode == nil {
		return []*types.ContentNode{}
	}
	result := make([]*types.ContentNode, 0, len(treeNode.Children))
	for _, child := range treeNode.Children {
		if node := nodesByID[child.ContentID]; node != nil {
			result = append(result, node)
		}
	}
	return result
}

func topLevel(forest []*TreeNode, nodesByID map[uuid.UUID]*types.ContentNode) []*types.ContentNode {
	inForest := make(map[uuid.UUID]bool)
	for _, root := range forest {
		collectIDs(root, inForest)
	}

	result := make([]*types.ContentNode, 0, len(forest))
	for _, root := range forest {
		if node := nodesByID[root.ContentID]; node != nil {
			result = append(result, node)
		}
	}

	var unorganised []*types.ContentNode
	for _, node := range nodesByID {
		if node != nil && !inForest[node.ID] {
			unorganised = append(unorganised, node)
		}
	}
	sort.SliceStable(unorganised, func(i, j int) bool {
		return unorganised[i].CreatedAt.Before(unorganised[j].CreatedAt)
	})
	return append(result, unorganised...)
}

// AncestorPath walks from the forest root down to contentID, inclusive. A
// root's path is the single-element list containing itself; content absent
// from the forest (unorganised or dangling) yields an empty path so callers
// can fall back to flat display.
func AncestorPath(forest []*TreeNode, nodesByID map[uuid.UUID]*types.ContentNode, contentID uuid.UUID) []*types.ContentNode {
	for _, root := range forest {
		if ids := pathTo(root, contentID); ids != nil {
			path := make([]*types.ContentNode, 0, len(ids))
			for _, id := range ids {
				if node := nodesByID[id]; node != nil {
					path = append(path, node)
				}
			}
			return path
		}
	}
	return []*types.ContentNode{}
}

func pathTo(node *TreeNode, targetID uuid.UUID) []uuid.UUID {
	if node.ContentID == targetID {
		return []uuid.UUID{node.ContentID}
	}
	for _, child := range node.Children {
		if rest := pathTo(child, targetID); rest != nil {
			return append([]uuid.UUID{node.ContentID}, rest...)
		}
	}
	return nil
}

// HasChildren reports whether contentID appears in the forest with at least
// one direct child.
func HasChildren(forest []*TreeNode, contentID uuid.UUID) bool {
	node := FindNode(forest, contentID)
	return node != nil && len(node.Children) > 0
}

// FindInTree reports whether targetID is the node itself or any descendant.
func FindInTree(node *TreeNode, targetID uuid.UUID) bool {
	if node == nil {
		return false
	}
	if node.ContentID == targetID {
		return true
	}
	for _, child := range node.Children {
		if FindInTree(child, targetID) {
			return true
		}
	}
	return false
}

// FindNode returns the tree position of contentID, or nil when it is not
// part of the forest.
func FindNode(forest []*TreeNode, contentID uuid.UUID) *TreeNode {
	for _, root := range forest {
		if found := findNodeIn(root, contentID); found != nil {
			return found
		}
	}
	return nil
}

func findNodeIn(node *TreeNode, contentID uuid.UUID) *TreeNode {
	if node.ContentID == contentID {
		return node
	}
	for _, child := range node.Children {
		if found := findNodeIn(child, contentID); found != nil {
			return found
		}
	}
	return nil
}

func collectIDs(node *TreeNode, into map[uuid.UUID]bool) {
	into[node.ContentID] = true
	for _, child := range node.Children {
		collectIDs(child, into)
	}
}
