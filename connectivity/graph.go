package connectivity

import "slices"

// NodeID identifies one placement within a Structure.
type NodeID int

// Edge is an undirected edge with U < V.
type Edge struct {
	U, V NodeID
}

// Graph is an undirected simple graph over NodeIDs with sorted adjacency
// lists. The zero value is an empty graph.
type Graph struct {
	adj   [][]NodeID
	edges int
}

// grow makes room for nodes [0, n).
func (g *Graph) grow(n int) {
	for len(g.adj) < n {
		g.adj = append(g.adj, nil)
	}
}

// add inserts the undirected edge {u, v}. Loops and duplicates are ignored.
func (g *Graph) add(u, v NodeID) {
	if u == v || g.HasEdge(u, v) {
		return
	}
	g.grow(int(max(u, v)) + 1)
	g.adj[u] = insertSorted(g.adj[u], v)
	g.adj[v] = insertSorted(g.adj[v], u)
	g.edges++
}

func insertSorted(s []NodeID, x NodeID) []NodeID {
	i, _ := slices.BinarySearch(s, x)
	return slices.Insert(s, i, x)
}

func (g *Graph) has(u NodeID) bool { return u >= 0 && int(u) < len(g.adj) }

// HasEdge reports whether {u, v} is an edge.
func (g *Graph) HasEdge(u, v NodeID) bool {
	if !g.has(u) || !g.has(v) {
		return false
	}
	_, ok := slices.BinarySearch(g.adj[u], v)
	return ok
}

// Neighbors returns the nodes adjacent to u, ascending. The slice is a copy.
func (g *Graph) Neighbors(u NodeID) []NodeID {
	if !g.has(u) {
		return nil
	}
	return slices.Clone(g.adj[u])
}

// Degree reports the number of edges at u.
func (g *Graph) Degree(u NodeID) int {
	if !g.has(u) {
		return 0
	}
	return len(g.adj[u])
}

// EdgeCount reports the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Edges lists every edge once, ordered by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for u, vs := range g.adj {
		for _, v := range vs {
			if NodeID(u) < v {
				out = append(out, Edge{U: NodeID(u), V: v})
			}
		}
	}
	return out
}
