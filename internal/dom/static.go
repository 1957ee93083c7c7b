package dom

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Document is a read-only page parsed from saved HTML. It satisfies Page so
// the harvesting code can run offline, but it cannot navigate or be clicked.
type Document struct {
	node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{node{sel: doc.Selection}}, nil
}

// ParseString parses an HTML string.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

func (d *Document) Navigate(url string) error {
	return fmt.Errorf("navigate %s: %w", url, ErrNotInteractive)
}

// WaitFor reports whether s matches now; a static document never changes.
func (d *Document) WaitFor(s Spec, _ time.Duration) bool {
	_, err := d.Find(s)
	return err == nil
}

func (d *Document) Settle(time.Duration) {}

// node wraps a goquery selection holding exactly one element (or the document root).
type node struct {
	sel *goquery.Selection
}

func (n node) Find(s Spec) (Element, error) {
	all, err := n.FindAll(s)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", s, ErrNotFound)
	}
	return all[0], nil
}

func (n node) FindAll(s Spec) ([]Element, error) {
	var sel *goquery.Selection
	switch s.Kind {
	case KindCSS:
		sel = n.sel.Find(s.Expr)
	case KindLinkText:
		want := strings.TrimSpace(s.Expr)
		sel = n.sel.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.TrimSpace(a.Text()) == want
		})
	case KindContains:
		sel = n.sel.Find(s.Expr).FilterFunction(func(_ int, e *goquery.Selection) bool {
			return strings.Contains(e.Text(), s.Text)
		})
	default:
		return nil, fmt.Errorf("%s: %w", s, ErrUnsupported)
	}

	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, e *goquery.Selection) {
		out = append(out, node{sel: e})
	})
	return out, nil
}

func (n node) Text() (string, error) {
	return n.sel.Text(), nil
}

func (n node) Attribute(name string) (string, bool, error) {
	v, ok := n.sel.Attr(name)
	return v, ok, nil
}

func (n node) Click() error            { return ErrNotInteractive }
func (n node) Input(text string) error { return ErrNotInteractive }
func (n node) Submit() error           { return ErrNotInteractive }
