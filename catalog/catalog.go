package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed bricks.yaml
var defaultTable []byte

// Catalog is an immutable brick registry. Build one with Load or use Default.
type Catalog struct {
	types   []BrickType // sorted by ID
	byID    map[int]BrickType
	byDims  map[dimKey]int
	byPart  map[string]int
	heights map[[2]int][]int // canonical (l,w) -> ascending heights
	maxDim  int
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded table: %v", err))
	}
	return c
})

// Default returns the process-wide catalog parsed from the embedded table.
// The first call parses; later calls return the same read-only instance.
func Default() *Catalog { return defaultCatalog() }

// Load parses a YAML table keyed by integer brick id, each entry holding
// length, width, height and part. Length and width may be given in either
// order; entries are stored canonically.
//
// When two ids share a dimension triple the lowest id wins the dimension
// lookup. Part ids must be unique.
//
// Errors: ErrInvalidTable (wrapped) for decode failures, non-positive
// dimensions, empty or duplicate part ids, or an empty table.
func Load(r io.Reader) (*Catalog, error) {
	var table map[int]tableEntry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidTable)
	}

	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	c := &Catalog{
		types:   make([]BrickType, 0, len(ids)),
		byID:    make(map[int]BrickType, len(ids)),
		byDims:  make(map[dimKey]int, len(ids)),
		byPart:  make(map[string]int, len(ids)),
		heights: make(map[[2]int][]int),
	}
	for _, id := range ids {
		e := table[id]
		if e.Length <= 0 || e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("%w: brick %d has non-positive dimensions %dx%dx%d",
				ErrInvalidTable, id, e.Length, e.Width, e.Height)
		}
		if e.Part == "" {
			return nil, fmt.Errorf("%w: brick %d has no part id", ErrInvalidTable, id)
		}
		if prev, dup := c.byPart[e.Part]; dup {
			return nil, fmt.Errorf("%w: part %q shared by bricks %d and %d", ErrInvalidTable, e.Part, prev, id)
		}
		key := canonical(e.Length, e.Width, e.Height)
		t := BrickType{ID: id, Length: key.l, Width: key.w, Height: key.h, PartID: e.Part}

		c.types = append(c.types, t)
		c.byID[id] = t
		c.byPart[e.Part] = id
		if _, seen := c.byDims[key]; !seen {
			c.byDims[key] = id
			fp := [2]int{key.l, key.w}
			c.heights[fp] = append(c.heights[fp], key.h)
		}
	}
	for fp := range c.heights {
		sort.Ints(c.heights[fp])
	}
	c.maxDim = lo.Max(lo.Map(c.types, func(t BrickType, _ int) int { return t.Width }))

	return c, nil
}

// DimensionsToBrickID returns the id of the brick with footprint l×w (either
// order) and height h.
// Complexity: O(1).
func (c *Catalog) DimensionsToBrickID(l, w, h int) (int, error) {
	key := canonical(l, w, h)
	id, ok := c.byDims[key]
	if !ok {
		return 0, &LookupError{Kind: "dimensions", Key: fmt.Sprintf("%dx%dx%d", key.l, key.w, key.h)}
	}
	return id, nil
}

// BrickIDToDimensions returns the canonical (l <= w, h) dimensions of id.
// Complexity: O(1).
func (c *Catalog) BrickIDToDimensions(id int) (l, w, h int, err error) {
	t, err := c.Type(id)
	if err != nil {
		return 0, 0, 0, err
	}
	return t.Length, t.Width, t.Height, nil
}

// BrickIDToPartID returns the LDraw part identifier of id.
// Complexity: O(1).
func (c *Catalog) BrickIDToPartID(id int) (string, error) {
	t, err := c.Type(id)
	if err != nil {
		return "", err
	}
	return t.PartID, nil
}

// PartIDToBrickID resolves an LDraw part identifier back to a brick id.
// Complexity: O(1) via the reverse index built in Load.
func (c *Catalog) PartIDToBrickID(part string) (int, error) {
	id, ok := c.byPart[part]
	if !ok {
		return 0, &LookupError{Kind: "part", Key: strconv.Quote(part)}
	}
	return id, nil
}

// Type returns the full entry for id.
func (c *Catalog) Type(id int) (BrickType, error) {
	t, ok := c.byID[id]
	if !ok {
		return BrickType{}, &LookupError{Kind: "id", Key: strconv.Itoa(id)}
	}
	return t, nil
}

// MaxBrickDimension is the largest footprint side across the catalog.
func (c *Catalog) MaxBrickDimension() int { return c.maxDim }

// Heights returns the available heights for the canonical footprint of l×w,
// ascending. The slice is a copy.
func (c *Catalog) Heights(l, w int) []int {
	if l > w {
		l, w = w, l
	}
	return append([]int(nil), c.heights[[2]int{l, w}]...)
}

// Types returns all entries ordered by id. The slice is a copy.
func (c *Catalog) Types() []BrickType {
	return append([]BrickType(nil), c.types...)
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int { return len(c.types) }

// Footprints returns the distinct canonical footprints (l <= w), ordered by
// area descending, then by l descending.
func (c *Catalog) Footprints() [][2]int {
	out := make([][2]int, 0, len(c.heights))
	for fp := range c.heights {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i][0]*out[i][1], out[j][0]*out[j][1]
		if ai != aj {
			return ai > aj
		}
		return out[i][0] > out[j][0]
	})
	return out
}
