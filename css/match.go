package css

import (
	"sort"
	"strings"
)

// Elem is the element view the matcher needs. The inliner adapts its HTML
// nodes to this interface so the css package stays independent of the parser
// producing the tree.
type Elem interface {
	TagName() string
	Attribute(name string) (string, bool)
}

// Matches reports whether sel matches the last element of chain. The chain is
// the element's ancestor path, root first, the element itself last; it is
// what makes the child combinator decidable.
func Matches(sel *Selector, chain []Elem) bool {
	if !sel.Supported() || len(chain) == 0 {
		return false
	}
	e := chain[len(chain)-1]

	if sel.Element != "" && sel.Element != strings.ToLower(e.TagName()) {
		return false
	}
	if len(sel.Classes) > 0 {
		attr, _ := e.Attribute("class")
		if !hasAllClasses(attr, sel.Classes) {
			return false
		}
	}
	if sel.ID != "" {
		id, _ := e.Attribute("id")
		if id != sel.ID {
			return false
		}
	}
	if sel.Parent != nil {
		// element must have a parent and the parent must match in turn
		if len(chain) < 2 {
			return false
		}
		return Matches(sel.Parent, chain[:len(chain)-1])
	}
	return true
}

// hasAllClasses checks set membership of every wanted class token in a
// space-separated class attribute value.
func hasAllClasses(attr string, wanted []string) bool {
	have := strings.Fields(attr)
	for _, w := range wanted {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RuleMatch is one rule applying to an element together with the specificity
// in effect: the greatest specificity among the rule's matching selectors.
type RuleMatch struct {
	Rule        *Rule
	Specificity Specificity
}

// RulesFor returns the declaration blocks applying to the last element of
// chain, ordered low to high precedence: specificity first, stylesheet
// document order as the tiebreak (later wins among equals). An element with
// no matching rules yields an empty result, not an error.
func (s *Stylesheet) RulesFor(chain []Elem) []RuleMatch {
	var matches []RuleMatch
	for _, rule := range s.Rules {
		var (
			best  Specificity
			found bool
		)
		for _, sel := range rule.Selectors {
			if Matches(sel, chain) {
				if spec := sel.Specificity(); !found || best.Less(spec) {
					best = spec
				}
				found = true
			}
		}
		if found {
			matches = append(matches, RuleMatch{Rule: rule, Specificity: best})
		}
	}
	// matches are already in document order, the stable sort keeps that order
	// among rules of equal specificity
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Specificity.Less(matches[j].Specificity)
	})
	return matches
}

// MergedFor computes a single merged declaration mapping for the last element
// of chain by applying matching rules lowest to highest precedence, so a
// later Set wins for the same property.
func (s *Stylesheet) MergedFor(chain []Elem) *Declarations {
	merged := NewDeclarations()
	for _, m := range s.RulesFor(chain) {
		for _, d := range m.Rule.Declarations.All() {
			merged.Set(d.Property, d.Value)
		}
	}
	return merged
}
