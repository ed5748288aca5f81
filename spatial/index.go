// Package spatial indexes brick extents in an R-tree so collision and
// adjacency queries touch only nearby bricks instead of every pair.
//
// Queries return candidates: every box that overlaps or touches the query
// box is included, and callers apply the exact integer predicates from
// package brick afterwards.
//
// Complexity: Insert and Candidates are O(log N) expected plus the result size.
package spatial

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/katalvlaran/voxbrick/brick"
)

// margin widens query boxes so face-touching neighbours, which share only a
// boundary plane, are reported as candidates.
const margin = 0.5

// R-tree branching bounds.
const (
	minChildren = 4
	maxChildren = 16
)

type entry struct {
	id   int
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// Index is a 3D R-tree of integer boxes keyed by caller-chosen ids.
// It is not safe for concurrent mutation.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(3, minChildren, maxChildren)}
}

// Len reports the number of inserted boxes.
func (ix *Index) Len() int { return ix.size }

// Insert adds box under id. Boxes must have positive size on every axis.
func (ix *Index) Insert(id int, box brick.Box) error {
	r, err := toRect(box, 0)
	if err != nil {
		return err
	}
	ix.tree.Insert(&entry{id: id, rect: r})
	ix.size++
	return nil
}

// Candidates returns the ids of all indexed boxes that overlap or touch box,
// sorted ascending.
func (ix *Index) Candidates(box brick.Box) []int {
	if ix.size == 0 {
		return nil
	}
	r, err := toRect(box, margin)
	if err != nil {
		return nil
	}
	hits := ix.tree.SearchIntersect(r)
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*entry).id)
	}
	sort.Ints(ids)
	return ids
}

func toRect(box brick.Box, pad float64) (rtreego.Rect, error) {
	p := make(rtreego.Point, 3)
	lengths := make([]float64, 3)
	for a := 0; a < 3; a++ {
		p[a] = float64(box.Min[a]) - pad
		lengths[a] = float64(box.Size(a)) + 2*pad
	}
	r, err := rtreego.NewRect(p, lengths)
	if err != nil {
		return rtreego.Rect{}, fmt.Errorf("spatial: box %v: %w", box, err)
	}
	return r, nil
}
