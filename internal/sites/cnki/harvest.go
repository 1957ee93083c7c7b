package cnki

import (
	"github.com/sirupsen/logrus"

	"cnkicrawl/internal/cascade"
	"cnkicrawl/internal/dom"
	"cnkicrawl/internal/paper"
)

// maxRejectLogs caps per-page diagnostics for rows without a title.
const maxRejectLogs = 3

// Harvester collects the records of one result page.
type Harvester struct {
	profile   Profile
	extractor *Extractor
	log       *logrus.Entry
}

// NewHarvester creates a Harvester for the given profile.
func NewHarvester(p Profile, log *logrus.Entry) *Harvester {
	return &Harvester{profile: p, extractor: NewExtractor(p), log: log}
}

// Harvest returns the accepted records of page in document order. A page
// without recognizable rows yields an empty slice.
func (h *Harvester) Harvest(page dom.Scope) []paper.Record {
	rows, idx, ok := cascade.All(page, h.profile.Rows)
	if !ok {
		h.log.Debug("no result rows found")
		return []paper.Record{}
	}
	h.log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"selector": h.profile.Rows[idx].String(),
	}).Debug("located result rows")

	records := make([]paper.Record, 0, len(rows))
	for i, row := range rows {
		rec, ok := h.extractor.Extract(row)
		if !ok {
			if i < maxRejectLogs {
				h.log.WithField("row", i+1).Debug("row has no title, skipped")
			}
			continue
		}
		records = append(records, rec)
	}
	return records
}
