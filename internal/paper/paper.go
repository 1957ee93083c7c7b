// Package paper holds the record harvested from one search result row.
package paper

// Record is one paper from a result listing. Only Title is guaranteed to be
// non-empty; every other field is best-effort display text.
type Record struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"` // "; " joined
	Journal       string `json:"journal"`
	PublishedDate string `json:"published_date"` // raw matched substring
	CitationCount string `json:"citation_count"` // e.g. "被引12"
	DownloadCount string `json:"download_count"`
}

// Columns is the fixed export column order. Headers keep the portal's
// Chinese labels: title, authors, journal, date, citations, downloads.
var Columns = []string{"标题", "作者", "期刊", "发表日期", "被引次数", "下载次数"}

// Values returns the record's fields in Columns order.
func (r Record) Values() []string {
	return []string{r.Title, r.Authors, r.Journal, r.PublishedDate, r.CitationCount, r.DownloadCount}
}

// FromValues builds a record from a row in Columns order. Missing trailing
// cells are treated as empty.
func FromValues(v []string) Record {
	get := func(i int) string {
		if i < len(v) {
			return v[i]
		}
		return ""
	}
	return Record{
		Title:         get(0),
		Authors:       get(1),
		Journal:       get(2),
		PublishedDate: get(3),
		CitationCount: get(4),
		DownloadCount: get(5),
	}
}

// Key identifies a record for optional de-duplication.
func (r Record) Key() string {
	return r.Title + "\x00" + r.Authors
}

// Coverage counts how many records have each optional field filled.
type Coverage struct {
	Total    int
	Authors  int
	Journals int
	Dates    int
}

// Measure computes the field coverage of records.
func Measure(records []Record) Coverage {
	c := Coverage{Total: len(records)}
	for _, r := range records {
		if r.Authors != "" {
			c.Authors++
		}
		if r.Journal != "" {
			c.Journals++
		}
		if r.PublishedDate != "" {
			c.Dates++
		}
	}
	return c
}

// Percent returns n as a percentage of the total, or 0 for an empty set.
func (c Coverage) Percent(n int) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(c.Total)
}
