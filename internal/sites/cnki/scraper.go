package cnki

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"cnkicrawl/internal/browser"
	"cnkicrawl/internal/scraper"
)

func init() {
	scraper.Register(&CNKIScraper{profile: Improved(), name: "cnki"})
	scraper.Register(&CNKIScraper{profile: Classic(), name: "cnki.classic"})
}

// CNKIScraper searches kns.cnki.net by author with a fixed profile.
type CNKIScraper struct {
	profile Profile
	name    string
}

func (s *CNKIScraper) Name() string { return s.name }

// Scrape runs one author search in a fresh browser. The browser is closed on
// every return path.
func (s *CNKIScraper) Scrape(ctx context.Context, author string, opts scraper.Options) (scraper.Content, error) {
	if author == "" {
		return nil, fmt.Errorf("author is required for --site %s", s.name)
	}

	c, err := Open(ctx, s.profile, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	q := Query{Author: author, Institution: opts.Institution}
	res, err := c.Search(ctx, q, opts.MaxPages)
	if err != nil {
		return NewPaperContent(q, res), err
	}
	return NewPaperContent(q, res), nil
}

// Crawler owns a browser, one page on it and a Session over that page. A
// batch reuses one Crawler for every author.
type Crawler struct {
	*Session
	browser *browser.Browser
	page    *browser.Page
}

// Open launches a browser and prepares a session for profile p.
func Open(ctx context.Context, p Profile, opts scraper.Options) (*Crawler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithFields(logrus.Fields{"component": "cnki", "profile": p.Name})

	waitTimeout := opts.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = p.WaitTimeout
	}

	b, err := browser.New(browser.Config{
		ProxyURL:   opts.ProxyURL,
		Headless:   !opts.ShowUI,
		UserAgent:  opts.UserAgent,
		WindowSize: opts.WindowSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	page, err := b.NewPage(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}
	log.Debug("browser ready")

	session := NewSession(page, p, Settings{
		BaseURL:     opts.BaseURL,
		WaitTimeout: waitTimeout,
		SearchDelay: opts.SearchDelay,
		PageDelay:   opts.PageDelay,
		Dedupe:      opts.Dedupe,
	}, log)

	return &Crawler{Session: session, browser: b, page: page}, nil
}

// Snapshot dispatches q and returns the rendered HTML of the first result
// page, for offline inspection with the static dom.
func (c *Crawler) Snapshot(ctx context.Context, q Query) (string, error) {
	if err := c.Dispatch(ctx, q); err != nil {
		return "", err
	}
	c.page.Settle(c.settings.SearchDelay)
	html, err := c.page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Close releases the page and the browser.
func (c *Crawler) Close() error {
	_ = c.page.Close()
	return c.browser.Close()
}
