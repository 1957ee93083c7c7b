package cnki

import (
	"regexp"
	"strings"

	"cnkicrawl/internal/cascade"
	"cnkicrawl/internal/dom"
	"cnkicrawl/internal/paper"
)

// datePatterns are tried in priority order over the row's full text; the
// first match is kept verbatim.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{4}/\d{2}/\d{2}`),
	regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}`),
	regexp.MustCompile(`\d{4}年\d{1,2}月`),
	regexp.MustCompile(`\d{4}年`),
}

// Extractor turns one result row into a record.
type Extractor struct {
	profile Profile
}

// NewExtractor creates an Extractor for the given profile.
func NewExtractor(p Profile) *Extractor {
	return &Extractor{profile: p}
}

// Extract reads every field of row. It reports false when no title can be
// found; all other fields are left empty when their locators miss.
func (e *Extractor) Extract(row dom.Element) (paper.Record, bool) {
	title := e.title(row)
	if title == "" {
		return paper.Record{}, false
	}

	rec := paper.Record{Title: title}

	if els, _, ok := cascade.All(row, e.profile.Authors); ok {
		rec.Authors = strings.Join(cascade.Texts(els), "; ")
	}

	if hit, ok := cascade.First(row, e.profile.Journal); ok {
		rec.Journal = hit.Text
	}

	if text, err := row.Text(); err == nil {
		rec.PublishedDate = MatchDate(text)
	}

	rec.CitationCount = counter(row, e.profile.Citations, e.profile.CitationKeywords)
	rec.DownloadCount = counter(row, e.profile.Downloads, e.profile.DownloadKeywords)

	return rec, true
}

func (e *Extractor) title(row dom.Element) string {
	if hit, ok := cascade.First(row, e.profile.Title); ok {
		return hit.Text
	}
	if hit, ok := cascade.First(row, e.profile.TitleFallback); ok {
		return hit.Text
	}
	return ""
}

// counter finds a citation/download marker. Class-substring locators also
// hit unrelated counters, so the text must carry one of the keywords.
func counter(row dom.Element, specs []dom.Spec, keywords []string) string {
	hit, ok := cascade.FirstWhere(row, specs, func(_ dom.Element, text string) bool {
		return text != "" && containsAny(text, keywords)
	})
	if !ok {
		return ""
	}
	return hit.Text
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// MatchDate returns the highest-priority date-like substring of text, or "".
func MatchDate(text string) string {
	for _, re := range datePatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}
