package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"cnkicrawl/internal/batch"
	"cnkicrawl/internal/config"
	"cnkicrawl/internal/sites/cnki"
	"cnkicrawl/internal/store"
)

const (
	quickOutputDir = "test_output"
	batchOutputDir = "batch_output"
)

// quickAuthors are the preset quick-test searches.
var quickAuthors = []config.Author{
	{Name: "李明"},
	{Name: "张伟", Institution: "清华大学"},
	{Name: "王芳", Institution: "北京大学"},
}

var quickCmd = &cobra.Command{
	Use:   "quick [1-3]",
	Short: "Crawl one page for a preset author into test_output/",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(os.Stdin, cmd.OutOrStdout())
		choice := ""
		if len(args) == 1 {
			choice = args[0]
		}
		return runQuick(cmd.Context(), cmd.OutOrStdout(), p, choice)
	},
}

// runQuick searches the chosen preset; choice is asked for when empty.
func runQuick(ctx context.Context, w io.Writer, p *prompter, choice string) error {
	fmt.Fprintln(w, "选择测试作者:")
	for i, a := range quickAuthors {
		inst := a.Institution
		if inst == "" {
			inst = "无单位限制"
		}
		fmt.Fprintf(w, "%d. %s - %s\n", i+1, a.Name, inst)
	}
	if choice == "" {
		choice = p.ask("请选择 (1-3): ")
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(quickAuthors) {
		return fmt.Errorf("invalid choice: %q", choice)
	}

	a := quickAuthors[n-1]
	out := filepath.Join(quickOutputDir, "test_"+a.Name+".xlsx")
	return runSearch(ctx, w, cnki.Query{Author: a.Name, Institution: a.Institution}, 1, out, "")
}

var (
	batchAuthorsFile string
	batchYes         bool
	batchMaxPages    int
	batchOutDir      string
	batchInit        string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Search a list of authors in one browser session",
	Long: `Search every author of a YAML list in one browser session and export
each result to batch_output/<author>_<institution>_papers.xlsx.

The list file looks like:

  authors:
    - name: 张三
      institution: 清华大学

Without --authors a built-in sample list is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if batchInit != "" {
			if err := config.WriteAuthors(batchInit, config.DefaultAuthors()); err != nil {
				return err
			}
			fmt.Fprintf(w, "Sample author list written to: %s\n", batchInit)
			return nil
		}

		authors := config.DefaultAuthors()
		if batchAuthorsFile != "" {
			var err error
			if authors, err = config.LoadAuthors(batchAuthorsFile); err != nil {
				return err
			}
		}
		return runBatch(cmd.Context(), w, newPrompter(os.Stdin, w), authors, batchYes)
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchAuthorsFile, "authors", "", "YAML author list")
	f.BoolVarP(&batchYes, "yes", "y", false, "skip the confirmation prompt")
	f.IntVarP(&batchMaxPages, "max-pages", "m", 0, "max pages per author (default batch_max_pages from config)")
	f.StringVar(&batchOutDir, "output-dir", batchOutputDir, "directory for the exported files")
	f.StringVar(&batchInit, "init", "", "write a sample author list to this path and exit")
}

func runBatch(ctx context.Context, w io.Writer, p *prompter, authors []config.Author, yes bool) error {
	profile, err := currentProfile()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "将批量处理 %d 个作者...\n", len(authors))
	for i, a := range authors {
		fmt.Fprintf(w, "%d. %s - %s\n", i+1, a.Name, a.Institution)
	}
	if !yes && !p.confirm("\n是否继续? (y/N): ") {
		fmt.Fprintln(w, "已取消")
		return nil
	}

	maxPages := batchMaxPages
	if maxPages <= 0 {
		maxPages = cfg.BatchMaxPages
	}
	outDir := batchOutDir
	if outDir == "" {
		outDir = batchOutputDir
	}

	crawler, err := cnki.Open(ctx, profile, scrapeOptions("", maxPages))
	if err != nil {
		return err
	}
	defer crawler.Close()

	r := &batch.Runner{
		Searcher:  crawler,
		OutputDir: outDir,
		MaxPages:  maxPages,
		Delay:     cfg.SearchDelay,
		Log:       logger.WithField("component", "batch"),
		OnEntry: func(e batch.Entry) {
			run := store.Run{
				Author:      e.Author.Name,
				Institution: e.Author.Institution,
				Profile:     profile.Name,
				Outcome:     string(e.Outcome),
				Records:     e.Count,
				Pages:       e.Pages,
				Output:      e.Output,
				StartedAt:   e.Started,
				Duration:    e.Duration,
			}
			if e.Err != nil {
				run.Error = e.Err.Error()
			}
			recordRun(run)
		},
	}

	sum, err := r.Run(ctx, authors, w)
	fmt.Fprintln(w)
	sum.Print(w)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}
