package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cnkicrawl/internal/dom"
	"cnkicrawl/internal/export"
	"cnkicrawl/internal/formatter"
	"cnkicrawl/internal/paper"
	"cnkicrawl/internal/sites/cnki"
)

var (
	parseAuthor string
	parseOutput string
	parseFormat string

	inspectFormat string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.html>",
	Short: "Harvest papers from a saved result page",
	Long: `Harvest papers from a result page saved from the browser, without
launching one. The active profile's locators are used; XPath locators are
skipped. Use --output with .xlsx or .csv to export instead of printing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !formatter.Valid(parseFormat) {
			return fmt.Errorf("invalid output format: %s", parseFormat)
		}
		profile, err := currentProfile()
		if err != nil {
			return err
		}

		records, err := harvestFile(args[0], profile)
		if err != nil {
			return err
		}

		res := cnki.Result{Records: records, Outcome: cnki.OutcomeEmpty}
		if len(records) > 0 {
			res.Outcome, res.Pages = cnki.OutcomeFound, 1
		}
		pc := cnki.NewPaperContent(cnki.Query{Author: parseAuthor}, res)

		w := cmd.OutOrStdout()
		if ext := strings.ToLower(filepath.Ext(parseOutput)); ext == ".xlsx" || ext == ".csv" {
			if err := export.Write(parseOutput, records); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			fmt.Fprintf(w, "%d papers written to %s\n", len(records), parseOutput)
			return nil
		}
		return render(w, pc, parseFormat, parseOutput)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.xlsx|file.csv>",
	Short: "Print an exported paper file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !formatter.Valid(inspectFormat) {
			return fmt.Errorf("invalid output format: %s", inspectFormat)
		}
		records, err := export.Read(args[0])
		if err != nil {
			return err
		}

		res := cnki.Result{Records: records, Outcome: cnki.OutcomeFound}
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		w := cmd.OutOrStdout()
		if err := render(w, cnki.NewPaperContent(cnki.Query{Author: name}, res), inspectFormat, ""); err != nil {
			return err
		}
		printCoverage(cmd.ErrOrStderr(), paper.Measure(records))
		return nil
	},
}

var (
	snapshotAuthor      string
	snapshotInstitution string
	snapshotOutput      string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save the first rendered result page of a search as HTML",
	Long: `Dispatch a search in the browser and save the rendered first result page,
so that it can be harvested later with "cnkicrawl parse".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := currentProfile()
		if err != nil {
			return err
		}
		c, err := cnki.Open(cmd.Context(), profile, scrapeOptions(snapshotInstitution, 1))
		if err != nil {
			return err
		}
		defer c.Close()

		html, err := c.Snapshot(cmd.Context(), cnki.Query{Author: snapshotAuthor, Institution: snapshotInstitution})
		if err != nil {
			return err
		}
		if snapshotOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		}
		if err := os.WriteFile(snapshotOutput, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", snapshotOutput)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotAuthor, "author", "a", "", "author name (required)")
	snapshotCmd.Flags().StringVarP(&snapshotInstitution, "institution", "i", "", "author institution")
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "HTML file (default stdout)")
	_ = snapshotCmd.MarkFlagRequired("author")

	parseCmd.Flags().StringVar(&parseAuthor, "author", "", "author label for the rendered output")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "output file")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "text", "output format (text, markdown, json, csv, html)")

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "markdown", "output format (text, markdown, json, csv, html)")
}

func harvestFile(path string, profile cnki.Profile) ([]paper.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return cnki.NewHarvester(profile, logger.WithField("component", "cnki")).Harvest(doc), nil
}

func render(w io.Writer, pc *cnki.PaperContent, format, output string) error {
	text, err := formatter.Format(pc, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if output == "" {
		fmt.Fprintln(w, text)
		return nil
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Output written to: %s\n", output)
	return nil
}
