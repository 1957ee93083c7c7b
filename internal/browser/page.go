package browser

import (
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"cnkicrawl/internal/dom"
)

// Page adapts a rod page to dom.Page.
type Page struct {
	page            *rod.Page
	navigateTimeout time.Duration
	idleTimeout     time.Duration
}

var _ dom.Page = (*Page)(nil)

// Navigate 跳转并等待 load 事件
func (p *Page) Navigate(url string) error {
	pg := p.page.Timeout(p.navigateTimeout)
	defer pg.CancelTimeout()
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", classify(err))
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", classify(err))
	}
	return nil
}

// WaitFor 在 timeout 内轮询直到 s 出现
func (p *Page) WaitFor(s dom.Spec, timeout time.Duration) bool {
	pg := p.page.Timeout(timeout)
	defer pg.CancelTimeout()
	var err error
	switch s.Kind {
	case dom.KindXPath:
		_, err = pg.ElementX(s.Expr)
	case dom.KindContains:
		_, err = pg.ElementR(s.Expr, regexp.QuoteMeta(s.Text))
	case dom.KindLinkText:
		_, err = pg.ElementR("a", linkTextRegex(s.Expr))
	default:
		_, err = pg.Element(s.Expr)
	}
	return err == nil
}

// Settle 固定等待 d，再等网络空闲（不超过 idleTimeout），让异步渲染的结果落地
func (p *Page) Settle(d time.Duration) {
	ctx := p.page.GetContext()
	select {
	case <-ctx.Done():
		return
	case <-time.After(d):
	}

	pg := p.page.Timeout(p.idleTimeout)
	defer pg.CancelTimeout()
	wait := pg.WaitRequestIdle(
		500*time.Millisecond, nil, nil,
		[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
	)
	wait()
}

// HTML 返回当前渲染后的完整文档
func (p *Page) HTML() (string, error) {
	html, err := p.page.HTML()
	return html, classify(err)
}

// Close 关闭页面
func (p *Page) Close() error {
	return p.page.Close()
}

func (p *Page) Find(s dom.Spec) (dom.Element, error)      { return find(p.page, s) }
func (p *Page) FindAll(s dom.Spec) ([]dom.Element, error) { return findAll(p.page, s) }

// Element adapts a rod element to dom.Element.
type Element struct {
	el *rod.Element
}

func (e *Element) Find(s dom.Spec) (dom.Element, error)      { return find(e.el, s) }
func (e *Element) FindAll(s dom.Spec) ([]dom.Element, error) { return findAll(e.el, s) }

func (e *Element) Text() (string, error) {
	return e.el.Text()
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// Click 通过 JS 触发点击，避免被遮挡元素拦截
func (e *Element) Click() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func (e *Element) Input(text string) error {
	_ = e.el.SelectAllText()
	return e.el.Input(text)
}

func (e *Element) Submit() error {
	return e.el.Type(input.Enter)
}

// querier is the lookup surface shared by rod pages and elements. The Has*
// variants return immediately instead of retrying until a match appears.
type querier interface {
	Has(selector string) (bool, *rod.Element, error)
	HasX(selector string) (bool, *rod.Element, error)
	HasR(selector, jsRegex string) (bool, *rod.Element, error)
	Elements(selector string) (rod.Elements, error)
	ElementsX(selector string) (rod.Elements, error)
}

func find(q querier, s dom.Spec) (dom.Element, error) {
	var (
		has bool
		el  *rod.Element
		err error
	)
	switch s.Kind {
	case dom.KindXPath:
		has, el, err = q.HasX(s.Expr)
	case dom.KindContains:
		has, el, err = q.HasR(s.Expr, regexp.QuoteMeta(s.Text))
	case dom.KindLinkText:
		has, el, err = q.HasR("a", linkTextRegex(s.Expr))
	default:
		has, el, err = q.Has(s.Expr)
	}
	if err != nil {
		return nil, classify(err)
	}
	if !has {
		return nil, fmt.Errorf("%s: %w", s, dom.ErrNotFound)
	}
	return &Element{el: el}, nil
}

func findAll(q querier, s dom.Spec) ([]dom.Element, error) {
	var (
		els rod.Elements
		err error
	)
	switch s.Kind {
	case dom.KindXPath:
		els, err = q.ElementsX(s.Expr)
	case dom.KindContains:
		els, err = q.Elements(s.Expr)
		els = filterText(els, func(t string) bool { return strings.Contains(t, s.Text) })
	case dom.KindLinkText:
		want := strings.TrimSpace(s.Expr)
		els, err = q.Elements("a")
		els = filterText(els, func(t string) bool { return strings.TrimSpace(t) == want })
	default:
		els, err = q.Elements(s.Expr)
	}
	if err != nil {
		return nil, classify(err)
	}

	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el})
	}
	return out, nil
}

// classify wraps errors that mean the browser connection or the target is
// gone with dom.ErrSessionLost.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, cdp.ErrSessionNotFound),
		errors.Is(err, cdp.ErrNotAttachedToActivePage):
		return fmt.Errorf("%w: %w", dom.ErrSessionLost, err)
	}
	return err
}

func filterText(els rod.Elements, keep func(string) bool) rod.Elements {
	var out rod.Elements
	for _, el := range els {
		t, err := el.Text()
		if err == nil && keep(t) {
			out = append(out, el)
		}
	}
	return out
}

func linkTextRegex(text string) string {
	return `^\s*` + regexp.QuoteMeta(strings.TrimSpace(text)) + `\s*$`
}
