// Package notes implements NotesService (C6) and its bounded, lossy
// subscriber fanout (C8, SubscriberFanout) — the single-owner actor that
// owns the note link graph, titles, and per-source error slots, serialized
// by a buffered channel of closures the way the teacher's
// internal/core/file_content_store.go serializes mutation through a single
// processUpdates goroutine reading a request channel.
package notes

import (
	"github.com/google/uuid"

	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// NoteData is one note surfaced by a compile: its declared id, heading
// title, and outgoing link targets (§4.3/§4.6).
type NoteData struct {
	ID    uuid.UUID
	Title string
	Links []uuid.UUID
}

// CompileOutcome is the per-source-root compile result NotesService is fed
// by BuildCoordinator: either a list of notes with warnings, or diagnostics
// on failure. It is the Go rendering of the original's
// Result<[NoteData], Diagnostics>.
type CompileOutcome struct {
	Notes    []NoteData
	Warnings []compiler.Warning
	Err      error
}

func (o CompileOutcome) ok() bool { return o.Err == nil }

// FileUpdate pairs a source root's FileID with its latest CompileOutcome,
// the unit update_notes batches over.
type FileUpdate struct {
	FileID  fsid.FileID
	Outcome CompileOutcome
}

// SourceError is the durable per-source-root error slot (§7): warnings on
// success, diagnostics on failure.
type SourceError struct {
	Warnings []compiler.Warning
	Err      error
}

// Snapshot is the consistent point-in-time view returned by Subscribe,
// matching §4.6's Snapshot { outgoing_links, titles }.
type Snapshot struct {
	OutgoingLinks map[uuid.UUID][]uuid.UUID
	Titles        map[uuid.UUID]string
}

// NoteMetadata is the supplemental GetNoteMetadata result recovered from
// original_source/backend/src/service.rs and router.rs: a note's title,
// outgoing links, and backlinks (the note ids whose outgoing edges target
// it).
type NoteMetadata struct {
	ID        uuid.UUID
	Title     string
	Links     []uuid.UUID
	Backlinks []uuid.UUID
}

// NoteItem is the supplemental GetNotes editor-surface listing recovered
// from router.rs/editor_protocol.rs: enough to populate an editor's note
// picker without fetching full content.
type NoteItem struct {
	ID        uuid.UUID
	Title     string
	OwnerFile fsid.FileID
}

// Message is the sealed set of messages a subscriber's channel carries.
type Message interface {
	isNotesMessage()
}

// BuildingMessage is sent (by the consuming transport, not NotesService
// itself — see internal/httpapi) to a subscriber that connects before the
// initial build has finished.
type BuildingMessage struct{}

// InitializeMessage carries the Snapshot a subscriber's stream begins from.
type InitializeMessage struct {
	Snapshot Snapshot
}

// UpdateMessage carries a batch of created/updated notes.
type UpdateMessage struct {
	Batch []NoteData
}

// RemoveMessage carries the ids removed in one batch.
type RemoveMessage struct {
	IDs []uuid.UUID
}

func (BuildingMessage) isNotesMessage()   {}
func (InitializeMessage) isNotesMessage() {}
func (UpdateMessage) isNotesMessage()     {}
func (RemoveMessage) isNotesMessage()     {}
