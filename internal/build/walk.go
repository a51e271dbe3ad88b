package build

import (
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/notegraphd/internal/buildlog"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// startupWalk implements §4.5's startup sequence: every *.typ file under the
// notes subdirectory is compiled once. Compiling is embarrassingly parallel
// (each SourceWorld only touches the shared SlotCache, which is safe for
// concurrent use), so the walk dispatches compiles onto a bounded worker
// pool via errgroup — the one place spec.md's "BFS order" sequencing
// requirement does not apply, since handle_modify's recompile path is the
// only one with an ordering obligation. Results are then applied to the
// graph and NotesService sequentially, in discovery order, keeping the
// graph single-owner.
func (c *Coordinator) startupWalk() error {
	paths, err := c.discoverNoteFiles()
	if err != nil {
		return buildlog.New(buildlog.CategoryWatcher, "walk notes directory", err).WithFile(c.notesDir)
	}

	ids := make([]fsid.FileID, 0, len(paths))
	for _, p := range paths {
		if id, ok := c.toFileID(p); ok {
			ids = append(ids, id)
		}
	}

	results := make([]compileResult, len(ids))
	group := new(errgroup.Group)
	group.SetLimit(max(1, runtime.GOMAXPROCS(0)))

	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			results[i] = c.compileAndExtract(id)
			return nil
		})
	}
	_ = group.Wait() // compileAndExtract never returns an error itself; failures live in outcome

	for _, result := range results {
		c.applyStartupResult(result)
	}

	return nil
}

func (c *Coordinator) applyStartupResult(result compileResult) {
	if !result.outcome.ok() {
		c.service.CreateNotes(result.id, result.outcome)
		return
	}

	if err := c.writeFragments(result.fragments); err != nil {
		c.fatal(buildlog.CategoryFragmentIO, "write fragment", result.id.String(), err)
		return
	}

	c.graphMu.Lock()
	c.graph.ReplaceDependencies(result.id, result.deps)
	c.sourceRoots[result.id] = struct{}{}
	c.graphMu.Unlock()

	c.service.CreateNotes(result.id, result.outcome)
}

func (c *Coordinator) discoverNoteFiles() ([]string, error) {
	var paths []string
	if _, err := os.Stat(c.notesDir); os.IsNotExist(err) {
		return paths, nil
	}

	err := filepath.WalkDir(c.notesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if fsid.HasTypExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
