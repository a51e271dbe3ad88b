// Package digraph implements a small directed graph keyed by a comparable
// type, used both as the file-level dependency graph (FileGraph) and as the
// note-level link graph. It plays the role petgraph::DiGraphMap plays in the
// original phelps implementation; Go's generics make a single shared type
// preferable to reaching for two separate graph packages.
package digraph

// Graph is a directed simple graph: at most one edge between any ordered
// pair of nodes, no edge weights/labels.
type Graph[K comparable] struct {
	out map[K]map[K]struct{}
	in  map[K]map[K]struct{}
}

// New returns an empty graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		out: make(map[K]map[K]struct{}),
		in:  make(map[K]map[K]struct{}),
	}
}

// AddNode inserts k if absent. Idempotent.
func (g *Graph[K]) AddNode(k K) {
	if _, ok := g.out[k]; !ok {
		g.out[k] = make(map[K]struct{})
		g.in[k] = make(map[K]struct{})
	}
}

// ContainsNode reports whether k is a node of the graph.
func (g *Graph[K]) ContainsNode(k K) bool {
	_, ok := g.out[k]
	return ok
}

// AddEdge inserts the edge u -> v, adding both endpoints as nodes if
// necessary. Idempotent.
func (g *Graph[K]) AddEdge(u, v K) {
	g.AddNode(u)
	g.AddNode(v)
	g.out[u][v] = struct{}{}
	g.in[v][u] = struct{}{}
}

// RemoveEdge removes the edge u -> v if present. A no-op otherwise.
func (g *Graph[K]) RemoveEdge(u, v K) {
	if out, ok := g.out[u]; ok {
		delete(out, v)
	}
	if in, ok := g.in[v]; ok {
		delete(in, u)
	}
}

// RemoveNode removes k and every incident edge.
func (g *Graph[K]) RemoveNode(k K) {
	for v := range g.out[k] {
		delete(g.in[v], k)
	}
	for u := range g.in[k] {
		delete(g.out[u], k)
	}
	delete(g.out, k)
	delete(g.in, k)
}

// Outgoing enumerates the successors of k in insertion-unordered fashion.
func (g *Graph[K]) Outgoing(k K) []K {
	succs := g.out[k]
	result := make([]K, 0, len(succs))
	for v := range succs {
		result = append(result, v)
	}
	return result
}

// Incoming enumerates the predecessors of k.
func (g *Graph[K]) Incoming(k K) []K {
	preds := g.in[k]
	result := make([]K, 0, len(preds))
	for u := range preds {
		result = append(result, u)
	}
	return result
}

// BFS enumerates every node reachable from k on outgoing edges, k included,
// each node visited exactly once, in breadth-first order. If k is not a node
// of the graph, BFS returns just k (matching the original's behavior of
// always including the seed node even for a brand-new file).
func (g *Graph[K]) BFS(k K) []K {
	visited := map[K]struct{}{k: {}}
	order := []K{k}
	queue := []K{k}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for v := range g.out[cur] {
			if _, seen := visited[v]; seen {
				continue
			}
			visited[v] = struct{}{}
			order = append(order, v)
			queue = append(queue, v)
		}
	}

	return order
}

// Nodes returns every node currently in the graph.
func (g *Graph[K]) Nodes() []K {
	result := make([]K, 0, len(g.out))
	for k := range g.out {
		result = append(result, k)
	}
	return result
}
