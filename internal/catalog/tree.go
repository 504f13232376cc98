package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

// ErrCategoryCycle is returned when a parent chain loops back on itself.
var ErrCategoryCycle = fmt.Errorf("category parent chain contains a cycle")

// Tree is a parent-id index over a snapshot of categories.
type Tree struct {
	parents  map[uuid.UUID]*uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

// NewTree indexes categories by parent. Categories whose parent is not in the
// snapshot are treated as roots of their own subtree.
func NewTree(categories []models.Category) *Tree {
	t := &Tree{
		parents:  make(map[uuid.UUID]*uuid.UUID, len(categories)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range categories {
		t.parents[c.ID] = c.ParentCategoryID
		if c.ParentCategoryID != nil {
			t.children[*c.ParentCategoryID] = append(t.children[*c.ParentCategoryID], c.ID)
		}
	}
	return t
}

// Contains reports whether id is part of the snapshot.
func (t *Tree) Contains(id uuid.UUID) bool {
	_, ok := t.parents[id]
	return ok
}

// Children returns the direct subcategories of id.
func (t *Tree) Children(id uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID(nil), t.children[id]...)
}

// IsLeaf reports whether id has no subcategories.
func (t *Tree) IsLeaf(id uuid.UUID) bool {
	return len(t.children[id]) == 0
}

// Ancestors walks from id's parent up to the root, nearest first. It fails
// with ErrCategoryCycle instead of looping when the chain revisits a node.
func (t *Tree) Ancestors(id uuid.UUID) ([]uuid.UUID, error) {
	if !t.Contains(id) {
		return nil, fmt.Errorf("category %s not in tree", id)
	}
	seen := map[uuid.UUID]struct{}{id: {}}
	var out []uuid.UUID
	current := t.parents[id]
	for current != nil {
		if _, dup := seen[*current]; dup {
			return out, ErrCategoryCycle
		}
		seen[*current] = struct{}{}
		out = append(out, *current)
		current = t.parents[*current]
	}
	return out, nil
}

// Root returns the top-most ancestor of id, or id itself when it is a root.
func (t *Tree) Root(id uuid.UUID) (uuid.UUID, error) {
	ancestors, err := t.Ancestors(id)
	if err != nil {
		return uuid.Nil, err
	}
	if len(ancestors) == 0 {
		return id, nil
	}
	return ancestors[len(ancestors)-1], nil
}
