package cnki

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cnkicrawl/internal/dom"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func parse(t *testing.T, html string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err)
	return doc
}

// tableRow renders one legacy result-table row for paper n on page p.
func tableRow(p, n int) string {
	return fmt.Sprintf(`<tr>
	<td class="seq">%[2]d</td>
	<td class="name"><a class="fz14" href="/kcms/detail?id=%[1]d-%[2]d">Paper %[1]d-%[2]d</a></td>
	<td class="author"><a href="/author?code=%[1]d%[2]d">作者%[2]d</a><a href="/author?code=ww">王五</a></td>
	<td class="source"><a href="/journal?code=JSJX">计算机学报</a></td>
	<td class="date">2023-05-%02[2]d</td>
	<td class="quote"><span class="cite-count">被引%[2]d</span></td>
	<td class="download"><span>下载%[2]d00</span></td>
</tr>`, p, n)
}

// resultPage renders a legacy result table of n rows followed by pager.
func resultPage(p, n int, pager string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="search-box">检索结果</div>
<table class="result-table-list"><tr><th>序号</th><th>题名</th><th>作者</th><th>来源</th><th>发表时间</th><th>被引</th><th>下载</th></tr>`)
	for i := 1; i <= n; i++ {
		sb.WriteString(tableRow(p, i))
	}
	sb.WriteString("</table>")
	sb.WriteString(`<div class="pages">` + pager + `</div></body></html>`)
	return sb.String()
}

// untitledPage has result rows but no title in any of them.
func untitledPage(n int) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><table class="result-table-list"><tr><th>题名</th></tr>`)
	for i := 0; i < n; i++ {
		sb.WriteString(`<tr><td class="date">2020-01-01</td><td><span class="cite-count">被引3</span></td></tr>`)
	}
	sb.WriteString("</table></body></html>")
	return sb.String()
}

const (
	nextButton   = `<a class="next-page" title="下一页" href="javascript:void(0)">下一页</a>`
	landingPage  = `<html><body><div class="nav-search"><input id="txt_search" placeholder="请输入检索词"/></div></body></html>`
	blankPage    = `<html><body><p>访问受限</p></body></html>`
	errClickStub = "stale element"
)

// fakePage is a scripted multi-page dom.Page. Navigating to the direct search
// URL shows results[0] when direct is true; any other URL shows the landing
// page, whose input submits to results[0]. Clicking any element on a result
// page shows the next result page.
type fakePage struct {
	t       *testing.T
	results []*dom.Document
	landing *dom.Document
	direct  bool

	current *dom.Document
	idx     int

	failClick map[int]bool // result page index whose clicks fail
	onSettle  func(p *fakePage)
	dead      bool // every call fails as if the browser exited

	navigated []string
	typed     string
	submitted bool
	clicks    int
	settles   []time.Duration
}

func newFakePage(t *testing.T, pages ...string) *fakePage {
	f := &fakePage{t: t, direct: true, failClick: map[int]bool{}}
	for _, p := range pages {
		f.results = append(f.results, parse(t, p))
	}
	f.landing = parse(t, landingPage)
	f.current = parse(t, blankPage)
	return f
}

var errBrowserExited = fmt.Errorf("browser process exited: %w", dom.ErrSessionLost)

func (f *fakePage) Navigate(u string) error {
	if f.dead {
		return errBrowserExited
	}
	f.navigated = append(f.navigated, u)
	if strings.Contains(u, "/kns8s/search") {
		if f.direct && len(f.results) > 0 {
			f.show(0)
		} else {
			f.current = parse(f.t, blankPage)
		}
		return nil
	}
	f.current = f.landing
	return nil
}

func (f *fakePage) show(i int) {
	f.idx = i
	f.current = f.results[i]
}

func (f *fakePage) WaitFor(s dom.Spec, timeout time.Duration) bool {
	if f.dead {
		return false
	}
	return f.current.WaitFor(s, timeout)
}

func (f *fakePage) Settle(d time.Duration) {
	f.settles = append(f.settles, d)
	if f.onSettle != nil {
		f.onSettle(f)
	}
}

func (f *fakePage) Find(s dom.Spec) (dom.Element, error) {
	if f.dead {
		return nil, errBrowserExited
	}
	el, err := f.current.Find(s)
	if err != nil {
		return nil, err
	}
	return &fakeElement{Element: el, page: f}, nil
}

func (f *fakePage) FindAll(s dom.Spec) ([]dom.Element, error) {
	if f.dead {
		return nil, errBrowserExited
	}
	els, err := f.current.FindAll(s)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &fakeElement{Element: el, page: f}
	}
	return out, nil
}

type fakeElement struct {
	dom.Element
	page *fakePage
}

func (e *fakeElement) Click() error {
	p := e.page
	if p.current == p.landing || p.failClick[p.idx] || p.idx+1 >= len(p.results) {
		return fmt.Errorf("%s: %w", errClickStub, dom.ErrNotFound)
	}
	p.clicks++
	p.show(p.idx + 1)
	return nil
}

func (e *fakeElement) Input(text string) error {
	e.page.typed = text
	return nil
}

func (e *fakeElement) Submit() error {
	p := e.page
	p.submitted = true
	if len(p.results) > 0 {
		p.show(0)
	}
	return nil
}
