package cnki

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"cnkicrawl/internal/cascade"
	"cnkicrawl/internal/dom"
)

// Paginator moves a result listing to its next page.
type Paginator struct {
	profile Profile
	log     *logrus.Entry
}

// NewPaginator creates a Paginator for the given profile.
func NewPaginator(p Profile, log *logrus.Entry) *Paginator {
	return &Paginator{profile: p, log: log}
}

// Advance clicks through to the next page and reports whether it did.
// Disabled next buttons and failed clicks fall through to the next
// candidate, then to the page-number links. The caller waits for the new
// page to render.
func (p *Paginator) Advance(page dom.Scope) bool {
	clicked := cascade.Try(page, p.profile.NextPage, func(h cascade.Hit) bool {
		spec := p.profile.NextPage[h.Index].String()
		if disabled(h.Element) {
			p.log.WithField("selector", spec).Debug("next button disabled")
			return false
		}
		if err := h.Element.Click(); err != nil {
			p.log.WithError(err).WithField("selector", spec).Debug("next button click failed")
			return false
		}
		p.log.WithField("selector", spec).Debug("clicked next button")
		return true
	})
	if clicked {
		return true
	}
	return p.byNumber(page)
}

// byNumber clicks the link labelled with the active page number plus one.
func (p *Paginator) byNumber(page dom.Scope) bool {
	var current int
	_, ok := cascade.FirstWhere(page, p.profile.CurrentPage, func(_ dom.Element, text string) bool {
		n, err := strconv.Atoi(text)
		if err != nil {
			return false
		}
		current = n
		return true
	})
	if !ok {
		return false
	}

	next := strconv.Itoa(current + 1)
	link, err := page.Find(dom.LinkText(next))
	if err != nil {
		return false
	}
	if err := link.Click(); err != nil {
		p.log.WithError(err).WithField("page", next).Debug("page link click failed")
		return false
	}
	p.log.WithField("page", next).Debug("clicked page number link")
	return true
}

func disabled(el dom.Element) bool {
	if class, _, err := el.Attribute("class"); err == nil && strings.Contains(class, "disabled") {
		return true
	}
	_, present, err := el.Attribute("disabled")
	return err == nil && present
}
