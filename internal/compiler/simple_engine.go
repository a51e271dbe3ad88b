package compiler

import (
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// SimpleEngine is a small, self-contained reference markup→HTML compiler.
// It is not an attempt to reimplement Typst (explicitly out of scope) — it
// exists so the rest of notegraphd (FragmentExtractor, FileGraph,
// BuildCoordinator, NotesService) can be exercised end to end without a real
// compiler attached. Its dialect:
//
//	# Title {note:<uuid>}     top-level heading declaring a note
//	@include "relative/path"  transcludes another project file's body
//	[text](note://<uuid>)     inline link to another note
//
// Any other non-blank line becomes a paragraph in the current heading's
// body.
type SimpleEngine struct{}

var (
	headingPattern = regexp.MustCompile(`^#\s+(.*?)\s*(\{[^}]*\})?\s*$`)
	labelPattern   = regexp.MustCompile(`^\{(.*)\}$`)
	includePattern = regexp.MustCompile(`^@include\s+"([^"]+)"\s*$`)
	linkPattern    = regexp.MustCompile(`\[([^\]]*)\]\((note://[^)]+)\)`)
)

func (SimpleEngine) Compile(world World) (Document, []Warning, Diagnostics) {
	main := world.Main()
	src, ferr := world.Source(main)
	if ferr != nil {
		return nil, nil, Diagnostics{{Message: ferr.Error()}}
	}

	var warnings []Warning
	var headings []HeadingRef
	visited := map[fsid.FileID]bool{main: true}

	body, diags := renderFile(world, main, src.Text, visited, &headings, &warnings)
	if len(diags) > 0 {
		return nil, warnings, diags
	}

	return &simpleDocument{
		html:     "<html><body>" + body + "</body></html>",
		headings: headings,
	}, warnings, nil
}

func renderFile(
	world World,
	id fsid.FileID,
	text string,
	visited map[fsid.FileID]bool,
	headings *[]HeadingRef,
	warnings *[]Warning,
) (string, Diagnostics) {
	var b strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			title := m[1]
			label := ""
			if m[2] != "" {
				if lm := labelPattern.FindStringSubmatch(m[2]); lm != nil {
					label = lm[1]
				}
			}
			if label != "" {
				*headings = append(*headings, HeadingRef{Label: label, PlainText: title})
			}
			b.WriteString("<h2>")
			b.WriteString(html.EscapeString(title))
			b.WriteString("</h2>")
			continue
		}

		if m := includePattern.FindStringSubmatch(trimmed); m != nil {
			depPath := path.Join(path.Dir(string(id.VPath)), m[1])
			dep := fsid.New(nil, fsid.VirtualPath(depPath))

			if visited[dep] {
				return "", Diagnostics{{Message: fmt.Sprintf("cyclic @include of %s", dep)}}
			}

			depSrc, ferr := world.Source(dep)
			if ferr != nil {
				return "", Diagnostics{{Message: ferr.Error()}}
			}

			visited[dep] = true
			sub, diags := renderFile(world, dep, depSrc.Text, visited, headings, warnings)
			delete(visited, dep)
			if len(diags) > 0 {
				return "", diags
			}
			b.WriteString(sub)
			continue
		}

		if strings.HasPrefix(trimmed, "!warn ") {
			*warnings = append(*warnings, Warning{Message: strings.TrimPrefix(trimmed, "!warn ")})
			continue
		}

		b.WriteString("<p>")
		b.WriteString(renderInline(trimmed))
		b.WriteString("</p>")
	}

	return b.String(), nil
}

func renderInline(line string) string {
	escaped := html.EscapeString(line)
	return linkPattern.ReplaceAllStringFunc(escaped, func(match string) string {
		m := linkPattern.FindStringSubmatch(match)
		text, href := m[1], m[2]
		return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
	})
}

type simpleDocument struct {
	html     string
	headings []HeadingRef
}

func (d *simpleDocument) HTML() string { return d.html }

func (d *simpleDocument) Introspector() Introspector {
	return simpleIntrospector{headings: d.headings}
}

type simpleIntrospector struct {
	headings []HeadingRef
}

func (i simpleIntrospector) Headings() []HeadingRef { return i.headings }
