package tree

import "daric/internal/models"

// Node is a category with its resolved children, as returned by the tree
// listing endpoint.
type Node struct {
	models.Category
	Children []*Node `json:"children"`
}

// Build assembles a user's flat category rows into a forest. Two passes:
// one to index every row, one to attach each node to its parent (or to the
// root list when parent_id is null or the parent is not part of the input).
// Linear in the number of rows and independent of input ordering.
func Build(rows []models.Category) []*Node {
	nodes := make(map[string]*Node, len(rows))
	for i := range rows {
		nodes[rows[i].ID] = &Node{Category: rows[i], Children: []*Node{}}
	}

	forest := []*Node{}
	for i := range rows {
		node := nodes[rows[i].ID]
		if rows[i].ParentID == nil {
			forest = append(forest, node)
			continue
		}
		parent, ok := nodes[*rows[i].ParentID]
		if !ok {
			// Parent filtered out of the input; surface the orphan at
			// the top rather than dropping it.
			forest = append(forest, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return forest
}

// Flatten is the inverse of Build: a pre-order traversal returning flat
// rows. Depth information survives in each row's Level field, so selection
// widgets can indent without re-walking the forest.
func Flatten(forest []*Node) []models.Category {
	rows := make([]models.Category, 0, len(forest))
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			rows = append(rows, n.Category)
			walk(n.Children)
		}
	}
	walk(forest)
	return rows
}
