package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// fakeWorld is a minimal, in-memory World used only to exercise SimpleEngine.
type fakeWorld struct {
	main  fsid.FileID
	files map[fsid.FileID]string
}

func newFakeWorld(main fsid.FileID, files map[fsid.FileID]string) *fakeWorld {
	return &fakeWorld{main: main, files: files}
}

func (w *fakeWorld) Library() *Library            { return &Library{Name: "test"} }
func (w *fakeWorld) Book() *FontBook              { return &FontBook{} }
func (w *fakeWorld) Main() fsid.FileID            { return w.main }
func (w *fakeWorld) Font(int) (Font, bool)        { return Font{}, false }
func (w *fakeWorld) Today(*int) (time.Time, bool) { return time.Time{}, false }

func (w *fakeWorld) Source(id fsid.FileID) (*Source, error) {
	text, ok := w.files[id]
	if !ok {
		return nil, &FileError{Kind: FileErrorNotFound, Path: id.String()}
	}
	return &Source{ID: id, Text: text}, nil
}

func (w *fakeWorld) File(id fsid.FileID) ([]byte, error) {
	text, err := w.Source(id)
	if err != nil {
		return nil, err
	}
	return []byte(text.Text), nil
}

func mainID(vpath string) fsid.FileID {
	return fsid.New(nil, fsid.VirtualPath(vpath))
}

func TestSimpleEngineRendersHeadingsAndParagraphs(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "# First Note {note:aaaa}\nhello world\n\n# Second Note {note:bbbb}\nmore content",
	})

	doc, warnings, diags := SimpleEngine{}.Compile(world)
	require.Empty(t, diags)
	require.Empty(t, warnings)
	require.Contains(t, doc.HTML(), "<h2>First Note</h2>")
	require.Contains(t, doc.HTML(), "<p>hello world</p>")
	require.Contains(t, doc.HTML(), "<h2>Second Note</h2>")

	headings := doc.Introspector().Headings()
	require.Len(t, headings, 2)
	require.Equal(t, "note:aaaa", headings[0].Label)
	require.Equal(t, "First Note", headings[0].PlainText)
	require.Equal(t, "note:bbbb", headings[1].Label)
}

func TestSimpleEngineSkipsUnlabeledHeadings(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "# Untracked Section\nsome text",
	})

	doc, _, diags := SimpleEngine{}.Compile(world)
	require.Empty(t, diags)
	require.Empty(t, doc.Introspector().Headings())
	require.Contains(t, doc.HTML(), "<h2>Untracked Section</h2>")
}

func TestSimpleEngineRendersInlineLinks(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "# Note {note:aaaa}\nsee [other note](note://bbbb) for more",
	})

	doc, _, diags := SimpleEngine{}.Compile(world)
	require.Empty(t, diags)
	require.Contains(t, doc.HTML(), `<a href="note://bbbb">other note</a>`)
}

func TestSimpleEngineFollowsIncludes(t *testing.T) {
	main := mainID("/index.typ")
	included := mainID("/shared.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main:     "# Main {note:aaaa}\nbefore\n@include \"shared.typ\"\n",
		included: "included text",
	})

	doc, _, diags := SimpleEngine{}.Compile(world)
	require.Empty(t, diags)
	require.Contains(t, doc.HTML(), "<p>before</p>")
	require.Contains(t, doc.HTML(), "<p>included text</p>")
}

func TestSimpleEngineReportsMissingInclude(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "@include \"missing.typ\"\n",
	})

	_, _, diags := SimpleEngine{}.Compile(world)
	require.NotEmpty(t, diags)
}

func TestSimpleEngineDetectsIncludeCycles(t *testing.T) {
	main := mainID("/a.typ")
	b := mainID("/b.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "@include \"b.typ\"\n",
		b:    "@include \"a.typ\"\n",
	})

	_, _, diags := SimpleEngine{}.Compile(world)
	require.NotEmpty(t, diags)
}

func TestSimpleEngineCollectsWarnings(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{
		main: "!warn deprecated syntax used\nbody text",
	})

	_, warnings, diags := SimpleEngine{}.Compile(world)
	require.Empty(t, diags)
	require.Len(t, warnings, 1)
	require.Equal(t, "deprecated syntax used", warnings[0].Message)
}

func TestSimpleEngineMissingMainSourceIsDiagnostic(t *testing.T) {
	main := mainID("/index.typ")
	world := newFakeWorld(main, map[fsid.FileID]string{})

	_, _, diags := SimpleEngine{}.Compile(world)
	require.NotEmpty(t, diags)
}
