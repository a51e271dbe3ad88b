// Package filegraph adapts internal/digraph to FileGraph (C4, spec §4.4):
// a directed graph over fsid.FileID where edge u -> v means "a change to u
// requires rebuilding v". Only project-local file ids ever become nodes;
// package files are read but never tracked.
package filegraph

import (
	"github.com/standardbeagle/notegraphd/internal/digraph"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// Graph is FileGraph.
type Graph struct {
	g *digraph.Graph[fsid.FileID]
}

// New returns an empty FileGraph.
func New() *Graph {
	return &Graph{g: digraph.New[fsid.FileID]()}
}

func (fg *Graph) AddNode(id fsid.FileID)                { fg.g.AddNode(id) }
func (fg *Graph) ContainsNode(id fsid.FileID) bool      { return fg.g.ContainsNode(id) }
func (fg *Graph) AddEdge(u, v fsid.FileID)              { fg.g.AddEdge(u, v) }
func (fg *Graph) RemoveEdge(u, v fsid.FileID)           { fg.g.RemoveEdge(u, v) }
func (fg *Graph) RemoveNode(id fsid.FileID)             { fg.g.RemoveNode(id) }
func (fg *Graph) Incoming(id fsid.FileID) []fsid.FileID { return fg.g.Incoming(id) }

// BFSFrom enumerates every node reachable from id on outgoing edges, id
// included — "if id changes, these must be rebuilt".
func (fg *Graph) BFSFrom(id fsid.FileID) []fsid.FileID { return fg.g.BFS(id) }

// ReplaceDependencies implements §4.4's rebuild-edge convention: after
// compiling v with captured dependency set deps, v's incoming edges become
// exactly {d -> v : d in deps, d is project-local}. Package-qualified
// dependencies are read but never become graph nodes.
func (fg *Graph) ReplaceDependencies(v fsid.FileID, deps []fsid.FileID) {
	for _, u := range fg.g.Incoming(v) {
		fg.g.RemoveEdge(u, v)
	}
	fg.g.AddNode(v)
	for _, d := range deps {
		if !d.IsProjectLocal() {
			continue
		}
		fg.g.AddEdge(d, v)
	}
}
