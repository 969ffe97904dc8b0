package css

import (
	"strings"
)

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property string
	Value    string
}

// Declarations is a property->value mapping that preserves insertion order.
// Setting a property that is already present overwrites the value in place
// keeping its original position, so emission order stays stable no matter in
// which order overrides arrive. This makes precedence a data structure
// invariant instead of a string concatenation accident.
type Declarations struct {
	list  []Declaration
	index map[string]int
}

// NewDeclarations creates an empty ordered declaration mapping.
func NewDeclarations() *Declarations {
	return &Declarations{index: make(map[string]int)}
}

// Len returns the number of declarations.
func (d *Declarations) Len() int {
	if d == nil {
		return 0
	}
	return len(d.list)
}

// Get returns the value for a property.
func (d *Declarations) Get(property string) (string, bool) {
	if d == nil {
		return "", false
	}
	i, ok := d.index[property]
	if !ok {
		return "", false
	}
	return d.list[i].Value, true
}

// Set adds a declaration or overwrites an existing one in place.
func (d *Declarations) Set(property, value string) {
	if i, ok := d.index[property]; ok {
		d.list[i].Value = value
		return
	}
	d.index[property] = len(d.list)
	d.list = append(d.list, Declaration{Property: property, Value: value})
}

// SetIfAbsent adds a declaration only when the property is not present yet.
// Used by the inliner to let pre-existing inline style win over computed one.
func (d *Declarations) SetIfAbsent(property, value string) {
	if _, ok := d.index[property]; ok {
		return
	}
	d.Set(property, value)
}

// All returns declarations in insertion order. The returned slice is a copy.
func (d *Declarations) All() []Declaration {
	if d == nil {
		return nil
	}
	out := make([]Declaration, len(d.list))
	copy(out, d.list)
	return out
}

// String serializes declarations as "prop: value; prop: value;" in insertion
// order. Returns an empty string when there is nothing to emit.
func (d *Declarations) String() string {
	if d.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for _, decl := range d.list {
		sb.WriteString(decl.Property)
		sb.WriteString(": ")
		sb.WriteString(decl.Value)
		sb.WriteString("; ")
	}
	return strings.TrimSuffix(sb.String(), " ")
}

// Specificity is selector matching strength with the usual [ids, classes,
// elements] convention, compared lexicographically.
type Specificity [3]int

// Less returns true if s is strictly weaker than other.
func (s Specificity) Less(other Specificity) bool {
	for i := range s {
		if s[i] < other[i] {
			return true
		}
		if s[i] > other[i] {
			return false
		}
	}
	return false
}

// Selector is a parsed compound selector. The only supported combinator is
// the direct child form "A > B": Parent holds the parsed "A" part and is
// matched against the element's immediate parent. Unsupported syntax
// (descendant, sibling, attribute, pseudo-class) parses into a selector that
// never matches anything.
type Selector struct {
	Raw     string
	Element string   // lowercase tag name, empty means no type constraint
	Classes []string // all must be present in the element's class attribute
	ID      string
	Parent  *Selector

	unsupported bool
}

// Supported reports whether this selector can ever match an element.
func (s *Selector) Supported() bool {
	return s != nil && !s.unsupported
}

// Specificity computes the selector's weight over the whole compound chain,
// parent part included: id > class count > element type.
func (s *Selector) Specificity() Specificity {
	var spec Specificity
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.ID != "" {
			spec[0]++
		}
		spec[1] += len(cur.Classes)
		if cur.Element != "" {
			spec[2]++
		}
	}
	return spec
}

// Rule is a single parsed CSS rule: a comma-separated selector group sharing
// one declaration block. Declarations are applied as a unit.
type Rule struct {
	Selectors    []*Selector
	Declarations *Declarations
	Order        int // document order within the stylesheet, tiebreak for equal specificity
}

// Stylesheet is an ordered list of parsed rules. It is read-only after
// parsing and safe to share across concurrent per-document renders.
type Stylesheet struct {
	Rules    []*Rule
	Warnings []string
}
