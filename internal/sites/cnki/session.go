package cnki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cnkicrawl/internal/cascade"
	"cnkicrawl/internal/dom"
	"cnkicrawl/internal/paper"
)

// DefaultBaseURL is the portal root used when Settings.BaseURL is empty.
const DefaultBaseURL = "https://kns.cnki.net"

var (
	// ErrSessionFatal marks a search aborted by its context or by a lost
	// browser. Records accumulated before the abort are still returned.
	ErrSessionFatal = errors.New("search session aborted")
	// ErrNotDispatched is returned by Dispatch when no result listing
	// rendered.
	ErrNotDispatched = errors.New("search could not be dispatched")
)

// Outcome distinguishes why a search produced what it did.
type Outcome string

const (
	OutcomeFound          Outcome = "found"
	OutcomeEmpty          Outcome = "empty"
	OutcomeDispatchFailed Outcome = "dispatch_failed"
)

// Query is an author search, optionally narrowed by institution.
type Query struct {
	Author      string
	Institution string
}

// String renders the portal's professional search syntax
// ("作者" = author, "单位" = institution).
func (q Query) String() string {
	s := "作者:" + q.Author
	if q.Institution != "" {
		s += " AND 单位:" + q.Institution
	}
	return s
}

// Result is the outcome of one search.
type Result struct {
	Records []paper.Record
	Outcome Outcome
	Pages   int // pages that yielded records
}

// Settings are the timing and endpoint knobs of a session.
type Settings struct {
	BaseURL     string
	WaitTimeout time.Duration
	SearchDelay time.Duration
	PageDelay   time.Duration
	Dedupe      bool
}

// Session runs searches on a single page, one at a time.
type Session struct {
	page      dom.Page
	profile   Profile
	settings  Settings
	harvester *Harvester
	paginator *Paginator
	log       *logrus.Entry
}

// NewSession creates a Session driving page with profile p.
func NewSession(page dom.Page, p Profile, s Settings, log *logrus.Entry) *Session {
	if s.WaitTimeout <= 0 {
		s.WaitTimeout = p.WaitTimeout
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	return &Session{
		page:      page,
		profile:   p,
		settings:  s,
		harvester: NewHarvester(p, log),
		paginator: NewPaginator(p, log),
		log:       log,
	}
}

// Search dispatches q and harvests up to maxPages result pages. Only a
// cancelled ctx or a lost browser produces an error (wrapping
// ErrSessionFatal); every other failure degrades into a partial or empty
// Result.
func (s *Session) Search(ctx context.Context, q Query, maxPages int) (Result, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	log := s.log.WithFields(logrus.Fields{
		"author":      q.Author,
		"institution": q.Institution,
	})

	if err := s.Dispatch(ctx, q); err != nil {
		if errors.Is(err, ErrSessionFatal) {
			return Result{Outcome: OutcomeDispatchFailed}, err
		}
		log.Warn("search could not be dispatched")
		return Result{Outcome: OutcomeDispatchFailed}, nil
	}
	s.page.Settle(s.settings.SearchDelay)

	res := Result{Outcome: OutcomeEmpty}
	seen := map[string]bool{}

	for n := 1; n <= maxPages; n++ {
		if err := ctx.Err(); err != nil {
			return res, fatal(err)
		}

		records := s.harvester.Harvest(s.page)
		if len(records) == 0 {
			if err := s.alive(); err != nil {
				return res, fatal(err)
			}
			if n == 1 {
				log.Warn("first page has no records; query or page layout may be wrong")
			} else {
				log.WithField("page", n).Info("no more records")
			}
			break
		}

		res.Pages = n
		res.Outcome = OutcomeFound
		for _, r := range records {
			if s.settings.Dedupe {
				if seen[r.Key()] {
					continue
				}
				seen[r.Key()] = true
			}
			res.Records = append(res.Records, r)
		}
		log.WithFields(logrus.Fields{
			"page":    n,
			"records": len(records),
			"total":   len(res.Records),
		}).Info("page harvested")

		if n == maxPages {
			break
		}
		if !s.paginator.Advance(s.page) {
			if err := s.alive(); err != nil {
				return res, fatal(err)
			}
			log.Info("no further pages")
			break
		}
		s.page.Settle(s.settings.PageDelay)
		s.page.WaitFor(s.profile.ResultsReady, s.settings.WaitTimeout)
	}

	if err := ctx.Err(); err != nil {
		return res, fatal(err)
	}
	return res, nil
}

func fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrSessionFatal, err)
}

// alive reports a lost browser as an error. Any other lookup outcome means
// the page still answers.
func (s *Session) alive() error {
	if _, err := s.page.Find(s.profile.ResultsReady); errors.Is(err, dom.ErrSessionLost) {
		return err
	}
	return nil
}

// Dispatch issues q with the profile's strategies in order until a result
// listing renders. It returns ErrNotDispatched when every strategy failed,
// or an error wrapping ErrSessionFatal when ctx is done or the browser is
// lost.
func (s *Session) Dispatch(ctx context.Context, q Query) error {
	log := s.log.WithFields(logrus.Fields{
		"author":      q.Author,
		"institution": q.Institution,
	})
	for _, kind := range s.profile.Dispatch {
		if err := ctx.Err(); err != nil {
			return fatal(err)
		}

		var (
			ok  bool
			err error
		)
		switch kind {
		case DispatchDirect:
			ok, err = s.direct(q, log)
		case DispatchForm:
			ok, err = s.form(q, log)
		}
		if errors.Is(err, dom.ErrSessionLost) {
			log.WithError(err).Error("browser session lost")
			return fatal(err)
		}
		if ok {
			log.WithField("strategy", string(kind)).Info("search dispatched")
			return nil
		}
		log.WithField("strategy", string(kind)).Debug("dispatch strategy failed")
	}
	if err := ctx.Err(); err != nil {
		return fatal(err)
	}
	return ErrNotDispatched
}

// SearchURL builds the direct result URL for q.
func (s *Session) SearchURL(q Query) string {
	return strings.TrimRight(s.settings.BaseURL, "/") +
		"/kns8s/search?crossref=N&kw=" + url.QueryEscape(q.String())
}

// direct and form report whether results rendered. Their error is set only
// for failures that end the session.
func (s *Session) direct(q Query, log *logrus.Entry) (bool, error) {
	u := s.SearchURL(q)
	if err := s.page.Navigate(u); err != nil {
		log.WithError(err).Debug("direct search navigation failed")
		return false, lost(err)
	}
	if s.page.WaitFor(s.profile.ResultsReady, s.settings.WaitTimeout) {
		return true, nil
	}
	return false, s.alive()
}

func (s *Session) form(q Query, log *logrus.Entry) (bool, error) {
	entry := strings.TrimRight(s.settings.BaseURL, "/") + s.profile.EntryPath
	if err := s.page.Navigate(entry); err != nil {
		log.WithError(err).Debug("entry page navigation failed")
		return false, lost(err)
	}

	// Inputs carry no text, so any located candidate is accepted.
	hit, ok := cascade.FirstWhere(s.page, s.profile.SearchInput, func(dom.Element, string) bool { return true })
	if !ok {
		log.Debug("search input not found")
		return false, s.alive()
	}
	if err := hit.Element.Input(q.String()); err != nil {
		log.WithError(err).Debug("typing query failed")
		return false, lost(err)
	}
	if err := hit.Element.Submit(); err != nil {
		log.WithError(err).Debug("submitting query failed")
		return false, lost(err)
	}
	if s.page.WaitFor(s.profile.ResultsReady, s.settings.WaitTimeout) {
		return true, nil
	}
	return false, s.alive()
}

// lost keeps err only when it means the browser is gone.
func lost(err error) error {
	if errors.Is(err, dom.ErrSessionLost) {
		return err
	}
	return nil
}
