// Package cascade evaluates ordered locator fallbacks against a scope.
//
// Specs are tried in priority order and the first accepted candidate wins;
// later specs are never evaluated once one is accepted. Every collaborator
// failure is a miss, so nothing here returns an error.
package cascade

import (
	"strings"

	"cnkicrawl/internal/dom"
)

// Hit is a located candidate.
type Hit struct {
	Element dom.Element
	Text    string // trimmed element text
	Index   int    // position of the spec that produced it
}

// Accept decides whether a located candidate counts as a match.
type Accept func(el dom.Element, text string) bool

// NonEmpty accepts candidates with non-empty trimmed text.
func NonEmpty(_ dom.Element, text string) bool { return text != "" }

// Try hands the first element located by each spec, in order, to fn and
// stops as soon as fn returns true. It reports whether fn accepted any hit.
func Try(scope dom.Scope, specs []dom.Spec, fn func(Hit) bool) bool {
	for i, s := range specs {
		el, err := scope.Find(s)
		if err != nil || el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			text = ""
		}
		if fn(Hit{Element: el, Text: strings.TrimSpace(text), Index: i}) {
			return true
		}
	}
	return false
}

// First is single-match mode: the first candidate with non-empty text.
func First(scope dom.Scope, specs []dom.Spec) (Hit, bool) {
	return FirstWhere(scope, specs, NonEmpty)
}

// FirstWhere is single-match mode with a caller supplied acceptance test.
func FirstWhere(scope dom.Scope, specs []dom.Spec, accept Accept) (Hit, bool) {
	var hit Hit
	ok := Try(scope, specs, func(h Hit) bool {
		if !accept(h.Element, h.Text) {
			return false
		}
		hit = h
		return true
	})
	return hit, ok
}

// All is multi-match mode: every element of the first spec that locates at
// least one. Results from different specs are never merged.
func All(scope dom.Scope, specs []dom.Spec) ([]dom.Element, int, bool) {
	for i, s := range specs {
		els, err := scope.FindAll(s)
		if err != nil || len(els) == 0 {
			continue
		}
		return els, i, true
	}
	return nil, -1, false
}

// Texts returns the trimmed, non-empty texts of els in order.
func Texts(els []dom.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
