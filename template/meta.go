package template

import (
	"regexp"
	"strings"
)

// Meta is the page metadata carried in the CANVAS_META html comment at the
// top of a template page:
//
//	<!-- CANVAS_META
//	title: Page Title
//	home: true
//	-->
//
// The comment makes pages previewable in a browser while still carrying
// package metadata; the renderer strips it from the emitted fragment.
type Meta struct {
	Title string
	Home  bool
}

var metaCommentPattern = regexp.MustCompile(`(?s)<!--\s*CANVAS_META\s*(.*?)-->`)

// ParseMeta extracts page metadata from raw template HTML. Pages without the
// comment get zero-value metadata (title defaults elsewhere). Unknown keys
// are ignored.
func ParseMeta(data []byte) Meta {
	var meta Meta

	m := metaCommentPattern.FindSubmatch(data)
	if m == nil {
		return meta
	}
	for line := range strings.SplitSeq(string(m[1]), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			meta.Title = value
		case "home":
			meta.Home = strings.EqualFold(value, "true")
		}
	}
	return meta
}
