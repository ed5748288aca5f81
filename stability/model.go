package stability

import "context"

// Unsupported returns the nodes that have no connection path to a grounded
// node, ascending. It is a multi-source BFS from every grounded node over the
// undirected connection edges.
// Complexity: O(V + E).
func Unsupported(m Model) []int {
	n := m.Len()
	adj := make([][]int, n)
	for _, e := range m.Edges {
		adj[e.Upper] = append(adj[e.Upper], e.Lower)
		adj[e.Lower] = append(adj[e.Lower], e.Upper)
	}

	seen := make([]bool, n)
	queue := make([]int, 0, n)
	for i, g := range m.Grounded {
		if g {
			seen[i] = true
			queue = append(queue, i)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, v := range adj[u] {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}

	var out []int
	for i, s := range seen {
		if !s {
			out = append(out, i)
		}
	}
	return out
}

// prepare validates m and settles the cases that need no solver.
// done reports whether score is already final.
func prepare(ctx context.Context, m Model) (score float64, done bool, err error) {
	if err = ctx.Err(); err != nil {
		return 1, true, err
	}
	if err = m.Validate(); err != nil {
		return 1, true, err
	}
	switch {
	case m.Len() == 0:
		return 0, true, nil
	case len(Unsupported(m)) > 0:
		return 1, true, nil
	case len(m.Edges) == 0:
		// every node is grounded and carries only itself
		return 0, true, nil
	}
	return 0, false, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
