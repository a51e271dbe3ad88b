package notes

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/standardbeagle/notegraphd/internal/buildlog"
	"github.com/standardbeagle/notegraphd/internal/diag"
	"github.com/standardbeagle/notegraphd/internal/digraph"
	"github.com/standardbeagle/notegraphd/internal/fsid"
	"github.com/standardbeagle/notegraphd/internal/readiness"
)

var logComponent = diag.Component("notes")

// Service is NotesService (C6): a single-owner goroutine draining a
// buffered channel of closures, capacity 64, matching spec.md §5's request
// queue. Every exported method sends one closure and waits for it to run,
// so callers see synchronous, serialized semantics while the actual state
// (link graph, titles, errors) is touched from exactly one goroutine.
type Service struct {
	requests  chan func()
	closeCh   chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once

	buildDir  string
	readiness *readiness.Event
	fanout    *fanout
	cancel    context.CancelCauseFunc

	linkGraph *digraph.Graph[uuid.UUID]
	titles    map[uuid.UUID]string
	owners    map[uuid.UUID]fsid.FileID
	ids       map[fsid.FileID][]uuid.UUID
	errs      map[fsid.FileID]SourceError
}

// New starts a Service rooted at buildDir (where fragment files live),
// sharing the given readiness event and cancellation function with the
// rest of the process.
func New(buildDir string, ready *readiness.Event, cancel context.CancelCauseFunc) *Service {
	s := &Service{
		requests:  make(chan func(), broadcastCapacity),
		closeCh:   make(chan struct{}),
		doneCh:    make(chan struct{}),
		buildDir:  buildDir,
		readiness: ready,
		fanout:    newFanout(),
		cancel:    cancel,
		linkGraph: digraph.New[uuid.UUID](),
		titles:    make(map[uuid.UUID]string),
		owners:    make(map[uuid.UUID]fsid.FileID),
		ids:       make(map[fsid.FileID][]uuid.UUID),
		errs:      make(map[fsid.FileID]SourceError),
	}
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.doneCh)
	for {
		select {
		case fn := <-s.requests:
			fn()
		case <-s.closeCh:
			// Drain requests already queued before exiting.
			for {
				select {
				case fn := <-s.requests:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Close stops the service's goroutine, after it runs any requests already
// queued, and closes every subscriber channel. Safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		<-s.doneCh
		s.fanout.closeAll()
	})
}

func (s *Service) exec(fn func()) {
	done := make(chan struct{})
	s.requests <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// GetNoteContent reads a note's fragment file if id is a known node in the
// link graph; absent otherwise, and absent for a dangling link target that
// has no fragment file, matching §4.6.
func (s *Service) GetNoteContent(id uuid.UUID) (content string, ok bool, err error) {
	s.exec(func() {
		if !s.linkGraph.ContainsNode(id) {
			return
		}
		raw, readErr := os.ReadFile(s.fragmentPath(id))
		if os.IsNotExist(readErr) {
			return
		}
		if readErr != nil {
			err = readErr
			return
		}
		content, ok = string(raw), true
	})
	return content, ok, err
}

// GetNoteMetadata returns a note's title, outgoing links, and backlinks, or
// false if id is not a known node.
func (s *Service) GetNoteMetadata(id uuid.UUID) (meta NoteMetadata, ok bool) {
	s.exec(func() {
		if !s.linkGraph.ContainsNode(id) {
			return
		}
		ok = true
		meta = NoteMetadata{
			ID:        id,
			Title:     s.titles[id],
			Links:     s.linkGraph.Outgoing(id),
			Backlinks: s.linkGraph.Incoming(id),
		}
	})
	return meta, ok
}

// GetNotes lists every known note for the editor-control surface.
func (s *Service) GetNotes() []NoteItem {
	var items []NoteItem
	s.exec(func() {
		for fileID, noteIDs := range s.ids {
			for _, id := range noteIDs {
				items = append(items, NoteItem{ID: id, Title: s.titles[id], OwnerFile: fileID})
			}
		}
	})
	return items
}

// FocusNote is a best-effort hook point for editor integration; notegraphd
// itself has no editor to forward to, so this only logs.
func (s *Service) FocusNote(id uuid.UUID) {
	logComponent.Logf("focus requested for note %s (no editor integration wired)", id)
}

// CreateNotes applies the outcome of compiling a brand-new source root
// (§4.6 create_notes).
func (s *Service) CreateNotes(fileID fsid.FileID, outcome CompileOutcome) {
	s.exec(func() {
		if !outcome.ok() {
			s.errs[fileID] = SourceError{Err: outcome.Err}
			return
		}
		s.errs[fileID] = SourceError{Warnings: outcome.Warnings}
		s.ids[fileID] = nil
		for _, n := range outcome.Notes {
			s.applyNote(fileID, n)
		}
		if s.readiness.HasFired() && len(outcome.Notes) > 0 {
			s.fanout.publish(UpdateMessage{Batch: outcome.Notes})
		}
	})
}

// UpdateNotes applies a batch of recompiled source roots (§4.6
// update_notes), emitting exactly one broadcast for the whole batch.
func (s *Service) UpdateNotes(batch []FileUpdate) {
	s.exec(func() {
		var all []NoteData
		for _, upd := range batch {
			if !upd.Outcome.ok() {
				s.errs[upd.FileID] = SourceError{Err: upd.Outcome.Err}
				continue
			}
			s.errs[upd.FileID] = SourceError{Warnings: upd.Outcome.Warnings}
			s.ids[upd.FileID] = nil
			for _, n := range upd.Outcome.Notes {
				s.replaceNoteEdges(n)
				s.applyNote(upd.FileID, n)
				all = append(all, n)
			}
		}
		if s.readiness.HasFired() {
			s.fanout.publish(UpdateMessage{Batch: all})
		}
	})
}

// RemoveNotes drops a source root entirely (§4.6 remove_notes): its error
// slot, every note it owned, and their fragment files. A fragment unlink
// failure is fatal.
func (s *Service) RemoveNotes(fileID fsid.FileID) {
	s.exec(func() {
		delete(s.errs, fileID)
		ids, ok := s.ids[fileID]
		if !ok {
			return
		}
		delete(s.ids, fileID)

		for _, id := range ids {
			delete(s.titles, id)
			delete(s.owners, id)
			s.linkGraph.RemoveNode(id)

			path := s.fragmentPath(id)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.cancel(buildlog.New(buildlog.CategoryFragmentIO, "remove fragment", err).WithFile(path))
			}
		}
		s.fanout.publish(RemoveMessage{IDs: ids})
	})
}

// SetBuildFinished fires the shared readiness event.
func (s *Service) SetBuildFinished() {
	s.readiness.Fire()
}

// GetBuildFinished hands out the shared readiness event.
func (s *Service) GetBuildFinished() *readiness.Event {
	return s.readiness
}

// IsReady reports whether the initial build has finished.
func (s *Service) IsReady() bool {
	return s.readiness.HasFired()
}

// Subscribe atomically captures a consistent Snapshot and registers a fresh
// subscription, so the returned channel carries only updates strictly
// after the snapshot (§4.6's ordering guarantee).
func (s *Service) Subscribe() (Snapshot, <-chan Message) {
	var snap Snapshot
	var ch <-chan Message
	s.exec(func() {
		snap = s.snapshotLocked()
		ch = s.fanout.subscribe()
	})
	return snap, ch
}

func (s *Service) snapshotLocked() Snapshot {
	outgoing := make(map[uuid.UUID][]uuid.UUID, len(s.titles))
	for _, id := range s.linkGraph.Nodes() {
		outgoing[id] = s.linkGraph.Outgoing(id)
	}
	titles := make(map[uuid.UUID]string, len(s.titles))
	for id, title := range s.titles {
		titles[id] = title
	}
	return Snapshot{OutgoingLinks: outgoing, Titles: titles}
}

func (s *Service) applyNote(owner fsid.FileID, n NoteData) {
	s.linkGraph.AddNode(n.ID)
	for _, target := range n.Links {
		s.linkGraph.AddEdge(n.ID, target)
	}
	s.titles[n.ID] = n.Title
	s.owners[n.ID] = owner
	s.ids[owner] = append(s.ids[owner], n.ID)
}

// replaceNoteEdges drops n.ID's current outgoing edges before applyNote
// re-adds the fresh set, matching §4.5's "remove_edge(i -> each current
// successor) then add the new edges" update_notes rule.
func (s *Service) replaceNoteEdges(n NoteData) {
	for _, succ := range s.linkGraph.Outgoing(n.ID) {
		s.linkGraph.RemoveEdge(n.ID, succ)
	}
}

func (s *Service) fragmentPath(id uuid.UUID) string {
	return filepath.Join(s.buildDir, id.String()+".html")
}
