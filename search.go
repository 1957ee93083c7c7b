package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cnkicrawl/internal/export"
	"cnkicrawl/internal/formatter"
	"cnkicrawl/internal/paper"
	"cnkicrawl/internal/scraper"
	"cnkicrawl/internal/sites/cnki"
	"cnkicrawl/internal/store"
)

const previewCount = 5

var (
	searchAuthor      string
	searchInstitution string
	searchMaxPages    int
	searchOutput      string
	searchFormat      string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search one author and export the papers",
	Long: `Search one author, optionally narrowed by institution.

Without --format the papers are exported to a spreadsheet (.xlsx, or .csv
when --output ends in .csv), by default output/<author>[_<institution>]_papers.xlsx.
With --format they are rendered to stdout, or to --output when given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchFormat == "" && searchOutput != "" {
			searchFormat = formatter.FromExtension(searchOutput)
		}
		if searchFormat != "" && !formatter.Valid(searchFormat) {
			return fmt.Errorf("invalid output format: %s", searchFormat)
		}
		maxPages := searchMaxPages
		if maxPages <= 0 {
			maxPages = cfg.MaxPages
		}
		q := cnki.Query{Author: strings.TrimSpace(searchAuthor), Institution: strings.TrimSpace(searchInstitution)}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), q, maxPages, searchOutput, searchFormat)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchAuthor, "author", "a", "", "author name (required)")
	f.StringVarP(&searchInstitution, "institution", "i", "", "author institution")
	f.IntVarP(&searchMaxPages, "max-pages", "m", 0, "max result pages (default max_pages from config)")
	f.StringVarP(&searchOutput, "output", "o", "", "output file (.xlsx/.csv export, or a preview format by extension)")
	f.StringVarP(&searchFormat, "format", "f", "", "preview format (text, markdown, json, csv, html)")
	_ = searchCmd.MarkFlagRequired("author")
}

// siteName maps a profile to its registered scraper.
func siteName(profile string) string {
	if profile == "classic" {
		return "cnki.classic"
	}
	return "cnki"
}

func currentProfile() (cnki.Profile, error) {
	p, ok := cnki.ProfileByName(cfg.Profile)
	if !ok {
		return cnki.Profile{}, fmt.Errorf("unknown profile %q (want improved or classic)", cfg.Profile)
	}
	return p, nil
}

func scrapeOptions(institution string, maxPages int) scraper.Options {
	return scraper.Options{
		Institution: institution,
		MaxPages:    maxPages,
		Dedupe:      cfg.Dedupe,
		BaseURL:     cfg.BaseURL,
		WaitTimeout: cfg.WaitTimeout,
		SearchDelay: cfg.SearchDelay,
		PageDelay:   cfg.PageDelay,
		ShowUI:      !cfg.Headless,
		ProxyURL:    cfg.Proxy,
		UserAgent:   cfg.UserAgent,
		WindowSize:  cfg.WindowSize,
		Logger:      logger,
	}
}

// runSearch scrapes q in a fresh browser and delivers the records. An
// interrupted search still delivers what it had harvested.
func runSearch(ctx context.Context, w io.Writer, q cnki.Query, maxPages int, output, format string) error {
	if q.Author == "" {
		return errors.New("author is required")
	}
	if _, err := currentProfile(); err != nil {
		return err
	}
	s, ok := scraper.Get(siteName(cfg.Profile))
	if !ok {
		return fmt.Errorf("unknown site: %s (registered: %s)", siteName(cfg.Profile), strings.Join(scraper.Names(), ", "))
	}

	fmt.Fprintf(w, "开始搜索作者: %s\n", q.Author)
	if q.Institution != "" {
		fmt.Fprintf(w, "单位: %s\n", q.Institution)
	}
	fmt.Fprintf(w, "最大页数: %d\n%s\n", maxPages, strings.Repeat("-", 50))

	run := store.Run{Author: q.Author, Institution: q.Institution, Profile: cfg.Profile, StartedAt: time.Now()}
	content, scrapeErr := s.Scrape(ctx, q.Author, scrapeOptions(q.Institution, maxPages))
	if content == nil {
		run.Error = scrapeErr.Error()
		recordRun(run)
		return fmt.Errorf("failed to scrape: %w", scrapeErr)
	}

	pc, ok := content.(*cnki.PaperContent)
	if !ok {
		return fmt.Errorf("unexpected content type %T", content)
	}
	res := pc.Result()

	path, err := deliver(w, pc, q, output, format)
	run.Outcome, run.Records, run.Pages, run.Output = string(res.Outcome), len(res.Records), res.Pages, path
	run.Duration = time.Since(run.StartedAt)
	if scrapeErr != nil {
		run.Error = scrapeErr.Error()
	} else if err != nil {
		run.Error = err.Error()
	}
	recordRun(run)

	if scrapeErr != nil {
		return fmt.Errorf("search interrupted: %w", scrapeErr)
	}
	return err
}

// deliver renders or exports the records of pc and returns the file written,
// if any.
func deliver(w io.Writer, pc *cnki.PaperContent, q cnki.Query, output, format string) (string, error) {
	res := pc.Result()

	if format != "" {
		text, err := formatter.Format(pc, format)
		if err != nil {
			return "", fmt.Errorf("failed to format output: %w", err)
		}
		if output == "" {
			fmt.Fprintln(w, text)
			return "", nil
		}
		if dir := filepath.Dir(output); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return "", fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", output)
		return output, nil
	}

	path := output
	if path == "" {
		path = export.FileName(cfg.OutputDir, q.Author, q.Institution)
	}
	if err := export.Write(path, res.Records); err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			logger.WithFields(logrus.Fields{"author": q.Author, "outcome": res.Outcome}).Warn("nothing to export")
			printNoResults(w, res.Outcome)
			return "", nil
		}
		return "", fmt.Errorf("failed to export: %w", err)
	}

	fmt.Fprintf(w, "\n成功! 共找到 %d 篇论文\n文件已保存至: %s\n", len(res.Records), path)
	printPreview(w, res.Records)
	return path, nil
}

func printPreview(w io.Writer, records []paper.Record) {
	fmt.Fprintf(w, "\n论文预览 (前%d篇):\n%s\n", previewCount, strings.Repeat("-", 80))
	for i, r := range records {
		if i == previewCount {
			fmt.Fprintf(w, "... 还有 %d 篇论文, 详情请查看导出文件\n", len(records)-previewCount)
			break
		}
		fmt.Fprintf(w, "%d. %s\n   作者: %s\n   期刊: %s\n   日期: %s\n\n",
			i+1, r.Title, orNA(r.Authors), orNA(r.Journal), orNA(r.PublishedDate))
	}
	printCoverage(w, paper.Measure(records))
}

func printCoverage(w io.Writer, c paper.Coverage) {
	fmt.Fprintln(w, "\n数据统计:")
	fmt.Fprintf(w, "  - 包含作者信息: %d/%d (%.1f%%)\n", c.Authors, c.Total, c.Percent(c.Authors))
	fmt.Fprintf(w, "  - 包含期刊信息: %d/%d (%.1f%%)\n", c.Journals, c.Total, c.Percent(c.Journals))
	fmt.Fprintf(w, "  - 包含日期信息: %d/%d (%.1f%%)\n", c.Dates, c.Total, c.Percent(c.Dates))
}

func printNoResults(w io.Writer, outcome cnki.Outcome) {
	fmt.Fprintln(w, "未找到相关论文")
	if outcome == cnki.OutcomeDispatchFailed {
		fmt.Fprintln(w, "检索未能提交: 请检查网络连接, 或改用 --profile classic 重试")
		return
	}
	fmt.Fprintln(w, "建议: 检查作者姓名是否正确, 或去掉单位限制后重试")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// recordRun saves run to the history database. History is best effort.
func recordRun(run store.Run) {
	if run.Duration == 0 {
		run.Duration = time.Since(run.StartedAt)
	}
	h, err := store.Open(cfg.HistoryDB)
	if err != nil {
		logger.WithError(err).Debug("history unavailable")
		return
	}
	defer h.Close()
	if _, err := h.Record(run); err != nil {
		logger.WithError(err).Debug("run not recorded")
	}
}
