package build

import (
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/notegraphd/internal/fragment"
	"github.com/standardbeagle/notegraphd/internal/fsid"
	"github.com/standardbeagle/notegraphd/internal/notes"
	"github.com/standardbeagle/notegraphd/internal/world"
)

// compileResult is one source root's compile outcome before it's applied to
// the graph and NotesService: either fragments ready to be written plus the
// dependency set captured by the world, or a failed CompileOutcome.
type compileResult struct {
	id        fsid.FileID
	fragments []fragment.Fragment
	deps      []fsid.FileID
	outcome   notes.CompileOutcome
}

// compileAndExtract runs one compile (§4.2) and FragmentExtractor (§4.3) for
// id. It performs no graph or NotesService mutation — callers apply the
// result sequentially so the graph stays single-owner even when several
// compiles run concurrently (the startup walk's worker pool).
func (c *Coordinator) compileAndExtract(id fsid.FileID) compileResult {
	w := world.NewSourceWorld(c.res, c.pkgs, c.cache, id, time.Now())

	doc, warnings, diags := c.engine.Compile(w)
	if len(diags) > 0 {
		return compileResult{id: id, outcome: notes.CompileOutcome{Err: diags}}
	}

	frags, err := fragment.Extract(doc)
	if err != nil {
		return compileResult{id: id, outcome: notes.CompileOutcome{Err: err}}
	}

	noteData := make([]notes.NoteData, 0, len(frags))
	for _, f := range frags {
		noteData = append(noteData, notes.NoteData{ID: f.NoteID, Title: f.Title, Links: f.Links})
	}

	return compileResult{
		id:        id,
		fragments: frags,
		deps:      w.IntoDependencies(),
		outcome:   notes.CompileOutcome{Notes: noteData, Warnings: warnings},
	}
}

// writeFragments persists every fragment's HTML to build/<uuid>.html via a
// temp-file-then-rename, so a concurrently polling HTTP client never reads a
// partial write (§6's supplemental robustness detail). Any failure here is
// fatal per §4.5.
func (c *Coordinator) writeFragments(frags []fragment.Fragment) error {
	for _, f := range frags {
		dest := filepath.Join(c.buildDir, f.NoteID.String()+".html")
		if err := writeFileAtomic(dest, []byte(f.HTML)); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(dest string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fragment-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
