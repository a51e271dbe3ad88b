package build

import (
	"github.com/standardbeagle/notegraphd/internal/buildlog"
	"github.com/standardbeagle/notegraphd/internal/fsid"
	"github.com/standardbeagle/notegraphd/internal/notes"
)

// dispatchCreate implements the Create branch of §4.5's event dispatch
// table: per spec.md §3/§4.5, only project-local .typ paths under the
// notes subdirectory are source roots; extra_directories is validated
// config (internal/config) but never promotes a path to a source root,
// matching the original's config.rs, which parses the field without
// otherwise consuming it.
func (c *Coordinator) dispatchCreate(path string) {
	if !fsid.HasTypExtension(path) || !c.isUnderNotesDir(path) {
		return
	}
	id, ok := c.toFileID(path)
	if !ok {
		return
	}
	c.handleCreate(id)
}

// dispatchModify resolves path to a FileID and only proceeds if it is
// already a tracked graph node or is itself a source root (.typ, under the
// notes subdirectory), matching §4.5's Modify branch.
func (c *Coordinator) dispatchModify(path string) {
	id, ok := c.toFileID(path)
	if !ok {
		return
	}

	c.graphMu.Lock()
	tracked := c.graph.ContainsNode(id)
	c.graphMu.Unlock()

	if !tracked && !(fsid.HasTypExtension(path) && c.isUnderNotesDir(path)) {
		return
	}
	c.handleModify(id)
}

// dispatchRemove implements §4.5's unconditional Remove branch.
func (c *Coordinator) dispatchRemove(path string) {
	id, ok := c.toFileID(path)
	if !ok {
		return
	}
	c.handleRemove(id)
}

// handleCreate compiles a brand-new source root (§4.5 handle_create).
func (c *Coordinator) handleCreate(id fsid.FileID) {
	result := c.compileAndExtract(id)

	if !result.outcome.ok() {
		c.service.CreateNotes(id, result.outcome)
		return
	}

	if err := c.writeFragments(result.fragments); err != nil {
		c.fatal(buildlog.CategoryFragmentIO, "write fragment", id.String(), err)
		return
	}

	c.graphMu.Lock()
	c.graph.ReplaceDependencies(id, result.deps)
	c.sourceRoots[id] = struct{}{}
	c.graphMu.Unlock()

	c.service.CreateNotes(id, result.outcome)
}

// handleModify recompiles id and every source root reachable from it in the
// graph, in BFS order, and posts one update_notes batch (§4.5 handle_modify).
func (c *Coordinator) handleModify(id fsid.FileID) {
	c.graphMu.Lock()
	wasTracked := c.graph.ContainsNode(id)
	reachable := c.graph.BFSFrom(id)
	for _, r := range reachable {
		c.cache.Reset(r)
	}
	var roots []fsid.FileID
	for _, r := range reachable {
		if _, isRoot := c.sourceRoots[r]; isRoot {
			roots = append(roots, r)
		}
	}
	if !wasTracked {
		// id isn't in the graph yet: dispatchModify only reaches here
		// because it qualifies as a brand-new source root.
		roots = append(roots, id)
	}
	c.graphMu.Unlock()

	batch := make([]notes.FileUpdate, 0, len(roots))
	for _, j := range roots {
		result := c.compileAndExtract(j)

		if !result.outcome.ok() {
			batch = append(batch, notes.FileUpdate{FileID: j, Outcome: result.outcome})
			continue
		}

		if err := c.writeFragments(result.fragments); err != nil {
			c.fatal(buildlog.CategoryFragmentIO, "write fragment", j.String(), err)
			return
		}

		c.graphMu.Lock()
		c.graph.ReplaceDependencies(j, result.deps)
		c.sourceRoots[j] = struct{}{}
		c.graphMu.Unlock()

		batch = append(batch, notes.FileUpdate{FileID: j, Outcome: result.outcome})
	}

	c.service.UpdateNotes(batch)
}

// handleRemove drops id from the graph and its source-root set; the
// NotesService owns deleting the associated fragment files (§4.5
// handle_remove).
func (c *Coordinator) handleRemove(id fsid.FileID) {
	c.graphMu.Lock()
	c.graph.RemoveNode(id)
	delete(c.sourceRoots, id)
	c.graphMu.Unlock()

	c.service.RemoveNotes(id)
}
