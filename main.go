package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cnkicrawl/internal/config"
)

var version = "dev"

var (
	cfgFile string
	v       = config.New()
	cfg     config.Config
	logger  = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:     "cnkicrawl",
	Short:   "Search CNKI by author and export the papers found",
	Version: version,
	Long: `cnkicrawl drives a headless Chromium session against the CNKI portal
(kns.cnki.net), searches by author and optional institution, walks the
result pages and exports the papers to a spreadsheet.

Run without a subcommand for the interactive menu.`,
	Example: `  # Interactive menu (single search, quick test, batch)
  cnkicrawl

  # Search one author and save to output/张伟_清华大学_papers.xlsx
  cnkicrawl search --author 张伟 --institution 清华大学

  # Preview the first two pages as markdown
  cnkicrawl search --author 王芳 --max-pages 2 -f markdown

  # Batch over a YAML author list without confirmation
  cnkicrawl batch --authors authors.yaml --yes

  # Harvest a saved result page offline
  cnkicrawl parse saved.html -f json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd.Context(), newPrompter(os.Stdin, cmd.OutOrStdout()))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./cnkicrawl.yaml or ~/.config/cnkicrawl/cnkicrawl.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("profile", "improved", "locator profile (improved, classic)")
	pf.String("base-url", "https://kns.cnki.net", "portal base URL")
	pf.Bool("showui", false, "show browser UI (disable headless mode)")
	pf.StringP("proxy", "p", "", "proxy URL (e.g. http://127.0.0.1:7890), defaults to CNKICRAWL_PROXY env var")
	pf.Bool("dedupe", false, "drop records repeated across pages")
	pf.Duration("wait-timeout", 0, "bound for each render wait (default from profile)")

	bind(pf.Lookup("log-level"), "log_level")
	bind(pf.Lookup("profile"), "profile")
	bind(pf.Lookup("base-url"), "base_url")
	bind(pf.Lookup("proxy"), "proxy")
	bind(pf.Lookup("dedupe"), "dedupe")
	bind(pf.Lookup("wait-timeout"), "wait_timeout")

	rootCmd.AddCommand(searchCmd, quickCmd, batchCmd, snapshotCmd, parseCmd, inspectCmd, historyCmd)
}

func loadConfig(cmd *cobra.Command) error {
	used, err := config.ReadFile(v, cfgFile)
	if err != nil {
		return err
	}

	if showUI, _ := cmd.Flags().GetBool("showui"); showUI {
		v.Set("headless", false)
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	if used != "" {
		logger.WithField("file", used).Debug("config loaded")
	}
	return nil
}

// bind ties a flag to a config key. Unset flags leave the file or env value.
func bind(flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

func main() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
