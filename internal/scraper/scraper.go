package scraper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Scraper is a registered search site. target is the site's primary query
// term (for cnki, the author name).
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, target string, opts Options) (Content, error)
}

type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

type Options struct {
	Institution string
	MaxPages    int
	Dedupe      bool

	BaseURL     string
	WaitTimeout time.Duration // bound for each render wait
	SearchDelay time.Duration // settle time after a search is dispatched
	PageDelay   time.Duration // settle time after a page turn

	ShowUI     bool
	ProxyURL   string // --proxy flag or CNKICRAWL_PROXY env var
	UserAgent  string
	WindowSize string

	Logger *logrus.Logger
}
