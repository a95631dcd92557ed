package tree

import "daric/internal/models"

// Navigator answers ancestry questions over a flat category list. Clients
// use it to pre-empt requests the server would reject (picking a descendant
// as a new parent, reactivating under an inactive ancestor); the server
// remains authoritative and a stale local list must defer to its answer.
type Navigator struct {
	byID map[string]*models.Category
}

// NewNavigator indexes the given rows. The slice is not copied; rows must
// not be mutated while the navigator is in use.
func NewNavigator(rows []models.Category) *Navigator {
	byID := make(map[string]*models.Category, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return &Navigator{byID: byID}
}

// Lookup returns the indexed category, or nil when absent.
func (n *Navigator) Lookup(id string) *models.Category {
	return n.byID[id]
}

// IsDescendantOf reports whether candidate sits anywhere under ancestor.
// Uses path_ids containment when the candidate carries it, falling back to
// walking the parent chain.
func (n *Navigator) IsDescendantOf(candidateID, ancestorID string) bool {
	c := n.byID[candidateID]
	if c == nil || candidateID == ancestorID {
		return false
	}
	if len(c.PathIDs) > 0 {
		return c.PathIDs.Contains(ancestorID)
	}

	for c != nil && c.ParentID != nil {
		if *c.ParentID == ancestorID {
			return true
		}
		c = n.byID[*c.ParentID]
	}
	return false
}

// FindRootParent walks to the top of the category's chain and returns the
// root, or nil when the id is unknown. A root category is its own root.
func (n *Navigator) FindRootParent(id string) *models.Category {
	c := n.byID[id]
	if c == nil {
		return nil
	}
	for c.ParentID != nil {
		parent := n.byID[*c.ParentID]
		if parent == nil {
			break
		}
		c = parent
	}
	return c
}

// AreAllParentsActive reports whether every ancestor of the category is
// active. True for roots and unknown ids.
func (n *Navigator) AreAllParentsActive(id string) bool {
	return n.FindNearestInactiveParent(id) == nil
}

// FindNearestInactiveParent returns the closest inactive ancestor, walking
// from the immediate parent toward the root, or nil when the whole chain is
// active. This mirrors the server's reactivation policy check, which reports
// the nearest blocker so the user can be pointed at the right category.
func (n *Navigator) FindNearestInactiveParent(id string) *models.Category {
	c := n.byID[id]
	if c == nil {
		return nil
	}
	for c.ParentID != nil {
		parent := n.byID[*c.ParentID]
		if parent == nil {
			return nil
		}
		if !parent.IsActive {
			return parent
		}
		c = parent
	}
	return nil
}
