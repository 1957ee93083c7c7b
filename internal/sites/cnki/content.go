package cnki

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"cnkicrawl/internal/paper"
)

// PaperContent holds the records of one search and implements scraper.Content.
type PaperContent struct {
	query  Query
	result Result
}

// NewPaperContent creates a new PaperContent instance.
func NewPaperContent(q Query, res Result) *PaperContent {
	return &PaperContent{query: q, result: res}
}

// Result returns the underlying search result.
func (c *PaperContent) Result() Result { return c.result }

func (c *PaperContent) heading() string {
	return fmt.Sprintf("CNKI Search: %s", c.query)
}

func (c *PaperContent) ToMarkdown() (string, error) {
	var sb strings.Builder
	sb.WriteString("# " + c.heading() + "\n\n")
	sb.WriteString(fmt.Sprintf("%d papers (%s, %d pages)\n\n", len(c.result.Records), c.result.Outcome, c.result.Pages))
	for i, r := range c.result.Records {
		sb.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, r.Title))
		for _, f := range fields(r) {
			if f.value != "" {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", f.label, f.value))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ToText converts the HTML rendering to plain Markdown-ish text.
func (c *PaperContent) ToText() (string, error) {
	h, err := c.ToHTML()
	if err != nil {
		return "", err
	}
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(h)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to text: %w", err)
	}
	return text, nil
}

func (c *PaperContent) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n<ol>\n", html.EscapeString(c.heading())))
	for _, r := range c.result.Records {
		sb.WriteString(fmt.Sprintf("  <li><strong>%s</strong>", html.EscapeString(r.Title)))
		var parts []string
		for _, f := range fields(r) {
			if f.value != "" {
				parts = append(parts, html.EscapeString(f.value))
			}
		}
		if len(parts) > 0 {
			sb.WriteString("<p>" + strings.Join(parts, " | ") + "</p>")
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ol>\n")
	return sb.String(), nil
}

func (c *PaperContent) ToJSON() ([]byte, error) {
	type jsonResult struct {
		Author      string         `json:"author"`
		Institution string         `json:"institution,omitempty"`
		Outcome     Outcome        `json:"outcome"`
		Pages       int            `json:"pages"`
		Records     []paper.Record `json:"records"`
	}
	records := c.result.Records
	if records == nil {
		records = []paper.Record{}
	}
	return json.Marshal(jsonResult{
		Author:      c.query.Author,
		Institution: c.query.Institution,
		Outcome:     c.result.Outcome,
		Pages:       c.result.Pages,
		Records:     records,
	})
}

func (c *PaperContent) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(paper.Columns)
	for _, r := range c.result.Records {
		_ = w.Write(r.Values())
	}
	w.Flush()
	return buf.String(), w.Error()
}

type field struct{ label, value string }

func fields(r paper.Record) []field {
	return []field{
		{"Authors", r.Authors},
		{"Journal", r.Journal},
		{"Date", r.PublishedDate},
		{"Citations", r.CitationCount},
		{"Downloads", r.DownloadCount},
	}
}
