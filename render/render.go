// Package render turns a locally previewable course page into a
// package-ready content fragment: stylesheet rules are inlined into style
// attributes, document scaffold is stripped, and local links are rewritten
// into the package's symbolic references.
package render

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ccb/css"
)

// metaCommentPrefix marks the page metadata comment. The metadata itself is
// the template scanner's concern, the renderer only keeps the comment out of
// the emitted fragment.
const metaCommentPrefix = "CANVAS_META"

// Renderer converts parsed HTML documents into body-only fragments. The
// stylesheet and link table are shared read-only state, a single Renderer may
// serve concurrent per-document Render calls.
type Renderer struct {
	sheet *css.Stylesheet
	links LinkTable
	log   *zap.Logger
}

// NewRenderer creates a renderer over a parsed stylesheet and a link table.
// Both may be empty but not nil-unsafe: a nil sheet means no computed styles,
// a nil table means no link rewriting.
func NewRenderer(sheet *css.Stylesheet, links LinkTable, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	if sheet == nil {
		sheet = &css.Stylesheet{}
	}
	return &Renderer{sheet: sheet, links: links, log: log.Named("render")}
}

// Render processes the document tree in place and returns the body-only HTML
// fragment. Pass order matters: styles are computed while the full ancestor
// chain is still intact, the scaffold is dropped next, links are rewritten
// over what remains.
func (r *Renderer) Render(doc *html.Node) (string, error) {
	r.applyStyles(doc, nil)

	body := findElement(doc, "body")
	if body == nil {
		return "", fmt.Errorf("document has no body element")
	}
	r.stripScaffold(body)
	r.rewriteLinks(body)

	var sb strings.Builder
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("unable to serialize fragment: %w", err)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// elemNode adapts *html.Node to the selector engine's element view.
type elemNode struct {
	n *html.Node
}

func (e elemNode) TagName() string { return e.n.Data }

func (e elemNode) Attribute(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// applyStyles walks the tree depth-first carrying the ancestor chain and
// merges computed declarations into each element's style attribute.
// Pre-existing inline declarations always win for the same property and are
// emitted first; computed ones follow in specificity-then-document order.
func (r *Renderer) applyStyles(n *html.Node, chain []css.Elem) {
	if n.Type == html.ElementNode {
		chain = append(chain, elemNode{n})
		r.styleElement(n, chain)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.applyStyles(c, chain)
	}
}

func (r *Renderer) styleElement(n *html.Node, chain []css.Elem) {
	existing, hadStyle := elemNode{n}.Attribute("style")

	merged := css.ParseInlineStyle(existing)
	for _, d := range r.sheet.MergedFor(chain).All() {
		merged.SetIfAbsent(d.Property, d.Value)
	}
	if merged.Len() == 0 {
		if hadStyle {
			// malformed beyond repair, drop rather than carry garbage
			removeAttr(n, "style")
		}
		return
	}

	if r.links != nil {
		for _, d := range merged.All() {
			if strings.Contains(d.Value, "url(") {
				merged.Set(d.Property, rewriteURLsInValue(d.Value, r.links))
			}
		}
	}

	// style is always the last attribute so output stays byte-stable no
	// matter where the source document put it
	removeAttr(n, "style")
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: merged.String()})
}

// stripScaffold removes nodes that only exist for standalone preview from the
// body subtree: stylesheet links that survived into the body and the page
// metadata comment. The head (with its stylesheet links and metadata) is
// dropped wholesale by emitting body children only.
func (r *Renderer) stripScaffold(body *html.Node) {
	var next *html.Node
	for n := body.FirstChild; n != nil; n = next {
		next = n.NextSibling
		switch {
		case n.Type == html.CommentNode && isMetaComment(n.Data):
			body.RemoveChild(n)
		case n.Type == html.ElementNode && n.Data == "link" && isStylesheetLink(n):
			body.RemoveChild(n)
		}
	}
}

func isMetaComment(data string) bool {
	return strings.HasPrefix(strings.TrimSpace(data), metaCommentPrefix)
}

func isStylesheetLink(n *html.Node) bool {
	rel, _ := elemNode{n}.Attribute("rel")
	return strings.EqualFold(strings.TrimSpace(rel), "stylesheet")
}

// rewriteLinks resolves href and src attributes against the link table.
// Absolute URLs, bare fragments, already-symbolic values, and unknown paths
// pass through unchanged.
func (r *Renderer) rewriteLinks(n *html.Node) {
	if n.Type == html.ElementNode {
		for i, a := range n.Attr {
			if a.Key != "href" && a.Key != "src" {
				continue
			}
			if resolved, ok := r.links.Resolve(a.Val); ok {
				n.Attr[i].Val = resolved
			} else if looksLocal(a.Val) {
				r.log.Debug("Unresolved local link", zap.String("tag", n.Data), zap.String(a.Key, a.Val))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.rewriteLinks(c)
	}
}

// looksLocal reports whether a value that failed resolution was a local
// relative path worth a debug note.
func looksLocal(v string) bool {
	return v != "" && !strings.HasPrefix(v, "#") && !hasScheme(v) && !isSymbolic(v)
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}
