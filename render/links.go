package render

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Symbolic reference prefixes understood by Canvas at import time. They are
// placeholders, not real URLs; the LMS substitutes actual locations when the
// package is imported.
const (
	FileBaseToken  = "$IMS-CC-FILEBASE$"
	WikiRefToken   = "$WIKI_REFERENCE$"
	ObjectRefToken = "$CANVAS_OBJECT_REFERENCE$"
)

// LinkTable maps a local relative path or content slug to a package-internal
// reference. Values use a short tagged form the rewriter expands:
//
//	page:<url>        wiki page reference
//	file:<subpath>    file under the package's resources area
//	assignment:<id>   course object references
//	quiz:<id>
//
// Any other value is substituted verbatim. The table is read-only here, the
// template scanner builds it. Missing entries are not an error.
type LinkTable map[string]string

// Resolve maps a local link value to its package reference. It returns the
// original value unchanged (ok=false) for absolute URLs, bare fragments,
// values already in symbolic form, and anything the table does not know.
func (t LinkTable) Resolve(raw string) (string, bool) {
	if raw == "" || strings.HasPrefix(raw, "#") || isSymbolic(raw) || hasScheme(raw) {
		return raw, false
	}

	base, fragment := splitFragment(raw)

	target, ok := t.lookup(base)
	if !ok {
		return raw, false
	}
	return expandReference(target) + fragment, true
}

// lookup tries the value as given, then cleaned of "./" and "../" lead-ins so
// links written relative to wiki_content still land on their table keys.
func (t LinkTable) lookup(base string) (string, bool) {
	if v, ok := t[base]; ok {
		return v, true
	}
	clean := path.Clean(base)
	for strings.HasPrefix(clean, "../") {
		clean = strings.TrimPrefix(clean, "../")
	}
	if v, ok := t[clean]; ok {
		return v, true
	}
	return "", false
}

// expandReference turns the table's tagged form into the Canvas symbolic
// reference string.
func expandReference(target string) string {
	kind, rest, found := strings.Cut(target, ":")
	if !found {
		return target
	}
	switch kind {
	case "page":
		return WikiRefToken + "/pages/" + rest
	case "file":
		return FileBaseToken + "/" + rest
	case "assignment":
		return ObjectRefToken + "/assignments/" + rest
	case "quiz":
		return ObjectRefToken + "/quizzes/" + rest
	default:
		return target
	}
}

// Localize is the best effort inverse of Resolve used when unpacking: it
// turns symbolic references back into links that work in a template directory
// previewed from wiki_content. Object references have no local file form and
// are returned unchanged.
func Localize(raw string) string {
	base, fragment := splitFragment(raw)
	switch {
	case strings.HasPrefix(base, WikiRefToken+"/pages/"):
		return strings.TrimPrefix(base, WikiRefToken+"/pages/") + ".html" + fragment
	case strings.HasPrefix(base, FileBaseToken+"/"):
		return "../web_resources/" + strings.TrimPrefix(base, FileBaseToken+"/") + fragment
	}
	return raw
}

// isSymbolic reports whether the value already carries a package reference.
func isSymbolic(v string) bool {
	return strings.HasPrefix(v, FileBaseToken) ||
		strings.HasPrefix(v, WikiRefToken) ||
		strings.HasPrefix(v, ObjectRefToken)
}

// hasScheme reports whether the value is an absolute URL ("https://...",
// "mailto:...", protocol-relative "//...").
func hasScheme(v string) bool {
	if strings.HasPrefix(v, "//") {
		return true
	}
	u, err := url.Parse(v)
	return err == nil && u.Scheme != ""
}

func splitFragment(v string) (base, fragment string) {
	if i := strings.IndexByte(v, '#'); i >= 0 {
		return v[:i], v[i:]
	}
	return v, ""
}

// urlRewritePattern matches url() references in CSS values.
// Handles: url("path"), url('path'), url(path)
var urlRewritePattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// rewriteURLsInValue resolves url() references inside a CSS value (inlined
// background images and the like) through the link table. Unresolvable
// references are kept as they are.
func rewriteURLsInValue(value string, links LinkTable) string {
	return urlRewritePattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlRewritePattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// group 1 is the quoted URL, group 2 the unquoted one
		original := sub[1]
		if original == "" {
			original = sub[2]
		}
		resolved, ok := links.Resolve(strings.TrimSpace(original))
		if !ok {
			return match
		}
		return fmt.Sprintf("url(%q)", resolved)
	})
}
