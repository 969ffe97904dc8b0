package css

import (
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	tdcss "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
//
// Parsing is best-effort and never fatal: malformed declarations are skipped,
// at-rules are skipped whole, unsupported selector syntax degrades to a
// selector that never matches. A broken stylesheet must not lose a build.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	lexer := tdcss.NewLexer(parse.NewInputBytes(data))

	var header strings.Builder

	for {
		tt, tok := lexer.Next()

		switch tt {
		case tdcss.ErrorToken:
			// end of input, anything accumulated without a block is dropped
			return sheet

		case tdcss.CommentToken:
			// ignored everywhere

		case tdcss.AtKeywordToken:
			// @media, @import, @font-face and friends are outside the
			// supported subset, skip the whole construct
			name := string(tok)
			p.skipAtRule(lexer)
			sheet.Warnings = append(sheet.Warnings, "skipped at-rule: "+name)
			p.log.Debug("Skipping at-rule", zap.String("rule", name))
			header.Reset()

		case tdcss.SemicolonToken:
			// stray semicolon outside a block, drop whatever preceded it
			if s := strings.TrimSpace(header.String()); s != "" {
				sheet.Warnings = append(sheet.Warnings, "skipped fragment: "+s)
				p.log.Debug("Skipping stylesheet fragment", zap.String("fragment", s))
			}
			header.Reset()

		case tdcss.LeftBraceToken:
			decls := p.parseDeclarationBlock(lexer, sheet)
			p.addRule(sheet, header.String(), decls)
			header.Reset()

		case tdcss.RightBraceToken:
			// unbalanced, ignore
			header.Reset()

		default:
			header.Write(tok)
		}
	}
}

// addRule splits the selector-group header on commas and appends a rule when
// at least one selector and one declaration came out of the block.
func (p *Parser) addRule(sheet *Stylesheet, header string, decls *Declarations) {
	if decls.Len() == 0 {
		return
	}

	var selectors []*Selector
	for raw := range strings.SplitSeq(header, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		selectors = append(selectors, p.parseSelector(raw, sheet))
	}
	if len(selectors) == 0 {
		return
	}

	sheet.Rules = append(sheet.Rules, &Rule{
		Selectors:    selectors,
		Declarations: decls,
		Order:        len(sheet.Rules),
	})
}

// parseDeclarationBlock consumes tokens until the matching closing brace and
// returns the declarations found. Malformed declarations (no colon before the
// semicolon) are skipped, as is anything inside stray nested braces.
func (p *Parser) parseDeclarationBlock(lexer *tdcss.Lexer, sheet *Stylesheet) *Declarations {
	decls := NewDeclarations()

	var (
		prop     strings.Builder
		value    strings.Builder
		seen     = &prop // writes go to property until a colon is seen
		haveWS   bool
		depth    int
		flush    func()
		discards int
	)

	flush = func() {
		property := strings.TrimSpace(prop.String())
		val := strings.TrimSpace(value.String())
		if seen == &prop || property == "" || val == "" {
			if property != "" || val != "" {
				discards++
			}
		} else {
			decls.Set(strings.ToLower(property), val)
		}
		prop.Reset()
		value.Reset()
		seen = &prop
		haveWS = false
	}

	for {
		tt, tok := lexer.Next()

		switch tt {
		case tdcss.ErrorToken:
			flush()
			if discards > 0 {
				sheet.Warnings = append(sheet.Warnings, "skipped malformed declarations")
			}
			return decls

		case tdcss.CommentToken:
			// ignored

		case tdcss.WhitespaceToken:
			haveWS = true

		case tdcss.ColonToken:
			if seen == &prop {
				seen = &value
				haveWS = false
			} else {
				value.WriteByte(':')
			}

		case tdcss.SemicolonToken:
			if depth == 0 {
				flush()
			}

		case tdcss.LeftBraceToken:
			// nested block inside a declaration list is malformed, skip it
			depth++

		case tdcss.RightBraceToken:
			if depth > 0 {
				depth--
				prop.Reset()
				value.Reset()
				seen = &prop
				discards++
				continue
			}
			flush()
			if discards > 0 {
				sheet.Warnings = append(sheet.Warnings, "skipped malformed declarations")
				p.log.Debug("Skipped malformed declarations", zap.Int("count", discards))
			}
			return decls

		default:
			if depth > 0 {
				continue
			}
			if haveWS && seen.Len() > 0 {
				seen.WriteByte(' ')
			}
			haveWS = false
			seen.Write(tok)
		}
	}
}

// skipAtRule consumes an at-rule completely: either up to the terminating
// semicolon (statement form) or past the matching closing brace (block form).
func (p *Parser) skipAtRule(lexer *tdcss.Lexer) {
	depth := 0
	for {
		tt, _ := lexer.Next()
		switch tt {
		case tdcss.ErrorToken:
			return
		case tdcss.SemicolonToken:
			if depth == 0 {
				return
			}
		case tdcss.LeftBraceToken:
			depth++
		case tdcss.RightBraceToken:
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

// parseSelector parses a single selector expression. Anything outside the
// supported subset (sibling combinators, attribute selectors, pseudo-classes
// and pseudo-elements, descendant combination) produces a selector that never
// matches; the rule stays in the sheet but has no effect.
func (p *Parser) parseSelector(raw string, sheet *Stylesheet) *Selector {
	sel := &Selector{Raw: raw}

	if strings.ContainsAny(raw, "+~[]:") {
		sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+raw)
		p.log.Debug("Skipping unsupported selector", zap.String("selector", raw))
		sel.unsupported = true
		return sel
	}

	// the child combinator is the only supported one; "A > B > C" chains the
	// parent parts left to right
	var parent *Selector
	parts := strings.Split(raw, ">")
	for i, part := range parts {
		compound, ok := parseCompound(strings.TrimSpace(part))
		if !ok {
			sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+raw)
			p.log.Debug("Skipping unsupported selector", zap.String("selector", raw))
			sel.unsupported = true
			return sel
		}
		compound.Parent = parent
		if i == len(parts)-1 {
			compound.Raw = raw
			return compound
		}
		parent = compound
	}

	// not reachable, strings.Split always yields at least one part
	sel.unsupported = true
	return sel
}

// parseCompound parses one compound selector: optional element type or "*",
// then any number of ".class" tokens and at most one "#id" token. A part
// containing whitespace is a descendant combination and is not supported.
func parseCompound(part string) (*Selector, bool) {
	if part == "" || strings.IndexFunc(part, unicode.IsSpace) >= 0 {
		return nil, false
	}

	sel := &Selector{Raw: part}
	rest := part

	// leading bareword is the element type
	if rest[0] != '.' && rest[0] != '#' {
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		if name := rest[:end]; name != "*" {
			sel.Element = strings.ToLower(name)
		}
		rest = rest[end:]
	}

	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		token := rest[:end]
		rest = rest[end:]
		if token == "" {
			return nil, false
		}
		switch marker {
		case '.':
			sel.Classes = append(sel.Classes, token)
		case '#':
			if sel.ID != "" {
				return nil, false
			}
			sel.ID = token
		default:
			return nil, false
		}
	}
	return sel, true
}

// ParseInlineStyle parses the value of a style attribute as a tolerant
// semicolon-delimited declaration list. Fragments without a colon are
// dropped, trailing and duplicate semicolons are harmless. Declarations keep
// their order of appearance; a repeated property keeps its first position
// with the later value.
func ParseInlineStyle(style string) *Declarations {
	decls := NewDeclarations()
	for frag := range strings.SplitSeq(style, ";") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		property, value, found := strings.Cut(frag, ":")
		if !found {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}
		decls.Set(property, value)
	}
	return decls
}
