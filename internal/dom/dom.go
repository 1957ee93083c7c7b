// Package dom describes the browser capability the crawler consumes:
// locating elements inside a scope, reading them and acting on them.
package dom

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a locator matches nothing in its scope.
	ErrNotFound = errors.New("element not found")
	// ErrNotInteractive is returned by scopes that cannot click or type.
	ErrNotInteractive = errors.New("element is not interactive")
	// ErrUnsupported is returned for locator kinds a backend cannot evaluate.
	ErrUnsupported = errors.New("locator kind not supported")
	// ErrSessionLost is wrapped by backends whose browser or page has gone
	// away. No further call on the page can succeed.
	ErrSessionLost = errors.New("browser session lost")
)

// Kind selects how a Spec expression is evaluated.
type Kind int

const (
	KindCSS      Kind = iota // CSS selector
	KindXPath                // XPath expression, relative to the scope
	KindLinkText             // anchor whose trimmed text equals Expr
	KindContains             // elements matching Expr whose text contains Text
)

// Spec is a single locator strategy.
type Spec struct {
	Kind Kind
	Expr string
	Text string
}

// CSS returns a CSS selector locator.
func CSS(selector string) Spec { return Spec{Kind: KindCSS, Expr: selector} }

// XPath returns an XPath locator.
func XPath(expr string) Spec { return Spec{Kind: KindXPath, Expr: expr} }

// LinkText returns a locator for anchors whose text is exactly text.
func LinkText(text string) Spec { return Spec{Kind: KindLinkText, Expr: text} }

// Contains returns a locator for elements matching selector whose text
// contains text.
func Contains(selector, text string) Spec {
	return Spec{Kind: KindContains, Expr: selector, Text: text}
}

func (s Spec) String() string {
	switch s.Kind {
	case KindXPath:
		return "xpath:" + s.Expr
	case KindLinkText:
		return "link:" + s.Expr
	case KindContains:
		return fmt.Sprintf("%s:contains(%q)", s.Expr, s.Text)
	default:
		return s.Expr
	}
}

// Scope is anything elements can be located in: a page or an element.
type Scope interface {
	// Find returns the first match or ErrNotFound.
	Find(s Spec) (Element, error)
	// FindAll returns every match in document order, possibly none.
	FindAll(s Spec) ([]Element, error)
}

// Element is a located node. It is itself a Scope for relative lookups.
type Element interface {
	Scope
	Text() (string, error)
	// Attribute reports the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	Click() error
	// Input replaces the element's value with text.
	Input(text string) error
	// Submit presses Enter in the element.
	Submit() error
}

// Page is a rendered document that can be navigated.
type Page interface {
	Scope
	Navigate(url string) error
	// WaitFor blocks until s matches or timeout elapses.
	WaitFor(s Spec, timeout time.Duration) bool
	// Settle pauses for at least d after an action that re-renders the page.
	Settle(d time.Duration)
}
