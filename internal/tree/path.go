// Package tree holds the pure tree math for category forests: materialized
// path computation, flat-rows-to-forest assembly, and the ancestor walks the
// clients mirror. Nothing here touches the database.
package tree

import "daric/internal/models"

// PathInfo carries the denormalized placement fields of a category.
type PathInfo struct {
	Level   int
	Path    string
	PathIDs models.StringList
}

// RootPathInfo returns the placement of a root category with the given name.
func RootPathInfo(name string) PathInfo {
	return PathInfo{
		Level:   1,
		Path:    name,
		PathIDs: models.StringList{},
	}
}

// ChildPathInfo computes a child's placement from its parent's stored
// values. Idempotent: recomputing from the same parent state always yields
// the same result, so it is reused both at create time and when rewriting a
// moved subtree top-down.
func ChildPathInfo(parent *models.Category, name string) PathInfo {
	if parent == nil {
		return RootPathInfo(name)
	}

	ids := make(models.StringList, 0, len(parent.PathIDs)+1)
	ids = append(ids, parent.PathIDs...)
	ids = append(ids, parent.ID)

	return PathInfo{
		Level:   parent.Level + 1,
		Path:    parent.Path + models.PathSeparator + name,
		PathIDs: ids,
	}
}

// Apply writes the placement onto a category row.
func (p PathInfo) Apply(c *models.Category) {
	c.Level = p.Level
	c.Path = p.Path
	c.PathIDs = p.PathIDs
}
