package fragment

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// section is one h2-delimited span of body children: the heading's title
// key and the sibling nodes that follow it up to (not including) the next
// h2, matching §4.3 step 2.
type section struct {
	title string
	nodes []*html.Node
}

func splitOnH2(body *html.Node) []section {
	var sections []section
	var current *section

	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.H2 {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &section{title: firstTextOf(c)}
			continue
		}
		if current != nil {
			current.nodes = append(current.nodes, c)
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

func firstTextOf(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return strings.TrimSpace(c.Data)
		}
		if text := firstTextOf(c); text != "" {
			return text
		}
	}
	return ""
}

// wrapArticle performs the explicit subtree copy §4.3 requires: it
// allocates a new <article> root and, for each source node in document
// order, walks its children iteratively to build an independent clone
// decoupled from the surrounding tree.
func wrapArticle(nodes []*html.Node) *html.Node {
	article := &html.Node{
		Type:     html.ElementNode,
		Data:     "article",
		DataAtom: atom.Article,
	}
	for _, n := range nodes {
		article.AppendChild(cloneSubtree(n))
	}
	return article
}

func cloneSubtree(src *html.Node) *html.Node {
	clone := &html.Node{
		Type:     src.Type,
		DataAtom: src.DataAtom,
		Data:     src.Data,
		Attr:     append([]html.Attribute(nil), src.Attr...),
	}

	// Walk children iteratively (left to right) to preserve document order
	// while keeping the clone's tree independent of the source's.
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneSubtree(c))
	}
	return clone
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	_ = html.Render(&b, n)
	return b.String()
}

var noteLinkPattern = regexp.MustCompile(`^note://(.+)$`)

// scrapeLinks walks a fragment's subtree for every a[href] whose href
// parses as note://<uuid>, in document order, keeping duplicates (§4.3 step
// 4).
func scrapeLinks(article *html.Node) []uuid.UUID {
	var links []uuid.UUID
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok {
				if m := noteLinkPattern.FindStringSubmatch(href); m != nil {
					if id, err := uuid.Parse(m[1]); err == nil {
						links = append(links, id)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(article)
	return links
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
