package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/notegraphd/internal/fsid"
	"github.com/standardbeagle/notegraphd/internal/notes"
)

// These tests exercise spec.md §8's six concrete end-to-end scenarios
// together against a real Coordinator + Service pair, each using the
// literal UUIDs the spec names.

func TestScenario1SingleNote(t *testing.T) {
	h := newHarness(t)
	const id = "550e8400-e29b-41d4-a716-446655440000"
	writeNote(t, h.notesDir, "a.typ", "# Heading {note:"+id+"}\nbody\n")

	require.NoError(t, h.coord.Start())

	_, err := os.Stat(filepath.Join(h.buildDir, id+".html"))
	require.NoError(t, err, "build/<uuid>.html must exist")

	snap, _ := h.service.Subscribe()
	require.Equal(t, "Heading", snap.Titles[uuid.MustParse(id)])
	require.Empty(t, snap.OutgoingLinks[uuid.MustParse(id)])
}

func TestScenario2TwoNotesOneLink(t *testing.T) {
	h := newHarness(t)
	const idA = "550e8400-e29b-41d4-a716-446655440000"
	const idB = "550e8400-e29b-41d4-a716-446655440001"

	writeNote(t, h.notesDir, "a.typ", "# A {note:"+idA+"}\n[see b](note://"+idB+")\n")
	writeNote(t, h.notesDir, "b.typ", "# B {note:"+idB+"}\nbody\n")

	require.NoError(t, h.coord.Start())

	snap, _ := h.service.Subscribe()
	require.Equal(t, []uuid.UUID{uuid.MustParse(idB)}, snap.OutgoingLinks[uuid.MustParse(idA)])
}

func TestScenario3ModifyPropagation(t *testing.T) {
	h := newHarness(t)
	const idB = "550e8400-e29b-41d4-a716-446655440001"
	writeNote(t, h.notesDir, "b.typ", "# B {note:"+idB+"}\nbody\n")

	require.NoError(t, h.coord.Start())

	writeNote(t, h.notesDir, "b.typ", "# B2 {note:"+idB+"}\nbody\n")
	bFileID := fsid.New(nil, fsid.VirtualPath("/notes/b.typ"))
	h.coord.handleModify(bFileID)

	meta, ok := h.service.GetNoteMetadata(uuid.MustParse(idB))
	require.True(t, ok)
	require.Equal(t, "B2", meta.Title)
	require.Empty(t, meta.Links)
}

func TestScenario4RemoveSource(t *testing.T) {
	h := newHarness(t)
	const id = "550e8400-e29b-41d4-a716-446655440000"
	writeNote(t, h.notesDir, "a.typ", "# Heading {note:"+id+"}\nbody\n")

	require.NoError(t, h.coord.Start())

	_, ch := h.service.Subscribe()

	require.NoError(t, os.Remove(filepath.Join(h.notesDir, "a.typ")))
	aFileID := fsid.New(nil, fsid.VirtualPath("/notes/a.typ"))
	h.coord.handleRemove(aFileID)

	select {
	case msg := <-ch:
		remove, ok := msg.(notes.RemoveMessage)
		require.True(t, ok, "expected a RemoveMessage, got %T", msg)
		require.Equal(t, []uuid.UUID{uuid.MustParse(id)}, remove.IDs)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for remove broadcast")
	}

	_, err := os.Stat(filepath.Join(h.buildDir, id+".html"))
	require.True(t, os.IsNotExist(err), "fragment file must be gone")

	_, ok := h.service.GetNoteMetadata(uuid.MustParse(id))
	require.False(t, ok)
}

func TestScenario5DanglingLink(t *testing.T) {
	h := newHarness(t)
	const idA = "550e8400-e29b-41d4-a716-446655440000"
	const idB = "550e8400-e29b-41d4-a716-446655440001"
	writeNote(t, h.notesDir, "a.typ", "# A {note:"+idA+"}\n[see b](note://"+idB+")\n")

	require.NoError(t, h.coord.Start())

	snap, _ := h.service.Subscribe()
	require.Equal(t, []uuid.UUID{uuid.MustParse(idB)}, snap.OutgoingLinks[uuid.MustParse(idA)])
	_, hasTitle := snap.Titles[uuid.MustParse(idB)]
	require.False(t, hasTitle, "dangling target must have no title")

	_, ok, err := h.service.GetNoteContent(uuid.MustParse(idB))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScenario6InitialGate(t *testing.T) {
	h := newHarness(t)
	writeNote(t, h.notesDir, "a.typ", "# A {note:550e8400-e29b-41d4-a716-446655440000}\nbody\n")

	// Subscribe before the startup build finishes: the polling front-end
	// synthesizes Building, but at the Service level the guarantee is
	// just that IsReady() is false until SetBuildFinished fires.
	require.False(t, h.service.IsReady())

	require.NoError(t, h.coord.Start())
	require.True(t, h.service.IsReady())

	snap, ch := h.service.Subscribe()
	require.Contains(t, snap.Titles, uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"))

	const idB = "550e8400-e29b-41d4-a716-446655440001"
	writeNote(t, h.notesDir, "b.typ", "# B {note:"+idB+"}\nbody\n")
	bFileID := fsid.New(nil, fsid.VirtualPath("/notes/b.typ"))
	h.coord.handleCreate(bFileID)

	select {
	case msg := <-ch:
		upd, ok := msg.(notes.UpdateMessage)
		require.True(t, ok, "expected an UpdateMessage, got %T", msg)
		require.Len(t, upd.Batch, 1)
		require.Equal(t, uuid.MustParse(idB), upd.Batch[0].ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update broadcast")
	}
}
