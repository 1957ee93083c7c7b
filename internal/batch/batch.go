// Package batch runs one author search after another on a shared session
// and tallies the outcome of each.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cnkicrawl/internal/config"
	"cnkicrawl/internal/export"
	"cnkicrawl/internal/paper"
	"cnkicrawl/internal/sites/cnki"
)

// Status is the per-author verdict printed in the summary.
type Status string

const (
	StatusOK    Status = "成功"  // records found and saved
	StatusEmpty Status = "无结果" // no records
	StatusError Status = "错误"  // search or export failed
)

// Searcher runs one query. *cnki.Crawler satisfies it.
type Searcher interface {
	Search(ctx context.Context, q cnki.Query, maxPages int) (cnki.Result, error)
}

// Entry is the result for one author.
type Entry struct {
	Author   config.Author
	Count    int
	Status   Status
	Outcome  cnki.Outcome
	Pages    int
	Output   string
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Summary holds every processed entry in input order.
type Summary struct {
	Entries []Entry
}

// Total returns the number of records across all authors.
func (s Summary) Total() int {
	n := 0
	for _, e := range s.Entries {
		n += e.Count
	}
	return n
}

// Succeeded returns how many authors ended with StatusOK.
func (s Summary) Succeeded() int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == StatusOK {
			n++
		}
	}
	return n
}

// Print writes the per-author table and the totals.
func (s Summary) Print(w io.Writer) {
	rule := strings.Repeat("-", 50)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "批量处理结果汇总:")
	fmt.Fprintln(w, rule)
	for _, e := range s.Entries {
		fmt.Fprintf(w, "%s: %d 篇论文 - %s\n", e.Author.Name, e.Count, e.Status)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "总计: %d 篇论文\n", s.Total())
	fmt.Fprintf(w, "成功率: %d/%d\n", s.Succeeded(), len(s.Entries))
}

// Runner processes an author list.
type Runner struct {
	Searcher  Searcher
	OutputDir string
	MaxPages  int
	// Delay is waited between consecutive authors.
	Delay time.Duration
	// OnEntry, when set, is called after every author.
	OnEntry func(Entry)
	Log     *logrus.Entry
}

// Run searches every author in order and exports each non-empty result.
// A failed author does not stop the batch. A cancelled ctx or a lost browser
// does, and the partial summary is returned with an error wrapping
// cnki.ErrSessionFatal.
func (r *Runner) Run(ctx context.Context, authors []config.Author, w io.Writer) (Summary, error) {
	var sum Summary
	for i, a := range authors {
		if i > 0 && r.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("%w: %w", cnki.ErrSessionFatal, err)
		}

		fmt.Fprintf(w, "\n[%d/%d] 正在处理: %s %s\n", i+1, len(authors), a.Name, a.Institution)
		e := r.one(ctx, a)
		sum.Entries = append(sum.Entries, e)
		if r.OnEntry != nil {
			r.OnEntry(e)
		}

		switch e.Status {
		case StatusOK:
			fmt.Fprintf(w, "找到 %d 篇论文, 已保存至 %s\n", e.Count, e.Output)
		case StatusEmpty:
			fmt.Fprintln(w, "未找到相关论文")
		default:
			fmt.Fprintf(w, "处理 %s 时出错: %v\n", a.Name, e.Err)
		}

		if errors.Is(e.Err, cnki.ErrSessionFatal) {
			return sum, e.Err
		}
	}
	return sum, nil
}

func (r *Runner) one(ctx context.Context, a config.Author) Entry {
	e := Entry{Author: a, Started: time.Now()}

	log := r.Log.WithFields(logrus.Fields{"author": a.Name, "institution": a.Institution})

	res, err := r.Searcher.Search(ctx, cnki.Query{Author: a.Name, Institution: a.Institution}, r.MaxPages)
	e.Outcome, e.Pages = res.Outcome, res.Pages
	if err != nil {
		// Keep what an interrupted search had already harvested.
		e.Status, e.Err = StatusError, err
		if path := export.FileName(r.OutputDir, a.Name, a.Institution); export.Write(path, res.Records) == nil {
			e.Count, e.Output = len(res.Records), path
		}
		e.Duration = time.Since(e.Started)
		return e
	}
	if res.Outcome == cnki.OutcomeDispatchFailed {
		e.Status, e.Err = StatusError, cnki.ErrNotDispatched
		e.Duration = time.Since(e.Started)
		return e
	}

	e.Output = export.FileName(r.OutputDir, a.Name, a.Institution)
	if err := export.Write(e.Output, res.Records); err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			log.Debug("nothing to export")
			e.Status, e.Output = StatusEmpty, ""
		} else {
			log.WithError(err).Error("export failed")
			e.Status, e.Err, e.Output = StatusError, err, ""
		}
		e.Duration = time.Since(e.Started)
		return e
	}

	e.Status, e.Count = StatusOK, len(res.Records)
	cov := paper.Measure(res.Records)
	log.WithFields(logrus.Fields{
		"records": cov.Total,
		"authors": cov.Authors,
		"dates":   cov.Dates,
	}).Info("author done")
	e.Duration = time.Since(e.Started)
	return e
}
