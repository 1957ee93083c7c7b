package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnkicrawl/internal/config"
	"cnkicrawl/internal/export"
	"cnkicrawl/internal/paper"
	"cnkicrawl/internal/sites/cnki"
	"cnkicrawl/internal/store"
)

func testConfig(t *testing.T) {
	t.Helper()
	c, err := config.Load(config.New())
	require.NoError(t, err)
	c.OutputDir = filepath.Join(t.TempDir(), "output")
	c.HistoryDB = filepath.Join(t.TempDir(), "history.db")
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestLoadConfigFromFlags(t *testing.T) {
	prevCfg, prevLevel := cfg, logger.GetLevel()
	t.Cleanup(func() {
		cfg = prevCfg
		logger.SetLevel(prevLevel)
		_ = rootCmd.PersistentFlags().Set("config", "")
		_ = rootCmd.PersistentFlags().Set("showui", "false")
		_ = rootCmd.PersistentFlags().Set("profile", "improved")
	})

	path := filepath.Join(t.TempDir(), "cnkicrawl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_pages: 7\npage_delay: 4\nlog_level: debug\n"), 0o644))
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path, "--showui", "--profile", "classic"}))

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	assert.Equal(t, 7, cfg.MaxPages)
	assert.Equal(t, 4*time.Second, cfg.PageDelay)
	assert.Equal(t, "classic", cfg.Profile)
	assert.False(t, cfg.Headless, "--showui disables headless mode")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(" 张伟 \n\nabc\ny\n"), &out)

	assert.Equal(t, "张伟", p.ask("name: "))
	assert.Equal(t, 3, p.askInt("pages: ", 3), "blank answer keeps the default")
	assert.Equal(t, 3, p.askInt("pages: ", 3), "non-numeric answer keeps the default")
	assert.True(t, p.confirm("ok? "))
	assert.Equal(t, "", p.ask("eof: "))
	assert.Equal(t, "name: pages: pages: ok? eof: ", out.String())
}

func TestSiteName(t *testing.T) {
	assert.Equal(t, "cnki", siteName("improved"))
	assert.Equal(t, "cnki.classic", siteName("classic"))
}

func TestDeliverExportsToDefaultPath(t *testing.T) {
	testConfig(t)
	q := cnki.Query{Author: "张伟", Institution: "清华大学"}
	pc := cnki.NewPaperContent(q, cnki.Result{
		Outcome: cnki.OutcomeFound,
		Pages:   1,
		Records: []paper.Record{{Title: "A", Authors: "张伟"}, {Title: "B"}},
	})

	var out bytes.Buffer
	path, err := deliver(&out, pc, q, "", "")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "张伟_清华大学_papers.xlsx"), path)
	records, err := export.Read(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Contains(t, out.String(), "共找到 2 篇论文")
	assert.Contains(t, out.String(), "包含作者信息: 1/2 (50.0%)")
}

func TestDeliverNothingToExport(t *testing.T) {
	testConfig(t)
	q := cnki.Query{Author: "李明"}

	var out bytes.Buffer
	path, err := deliver(&out, cnki.NewPaperContent(q, cnki.Result{Outcome: cnki.OutcomeEmpty}), q, "", "")

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Contains(t, out.String(), "未找到相关论文")
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestDeliverRendersFormat(t *testing.T) {
	testConfig(t)
	q := cnki.Query{Author: "王芳"}
	pc := cnki.NewPaperContent(q, cnki.Result{Outcome: cnki.OutcomeFound, Records: []paper.Record{{Title: "A"}}})

	var out bytes.Buffer
	path, err := deliver(&out, pc, q, "", "json")

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Contains(t, out.String(), `"title":"A"`)
}

func TestHarvestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body><table class="result-table-list">
		<tr><th>题名</th></tr>
		<tr><td class="name"><a class="fz14">离线页面</a></td><td>2022-01-02</td></tr>
	</table></body></html>`), 0o644))

	records, err := harvestFile(path, cnki.Improved())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "离线页面", records[0].Title)
	assert.Equal(t, "2022-01-02", records[0].PublishedDate)
}

func TestRecordRunIsBestEffort(t *testing.T) {
	testConfig(t)
	cfg.HistoryDB = filepath.Join(t.TempDir(), "sub", "history.db")

	assert.NotPanics(t, func() { recordRun(store.Run{Author: "张三", Outcome: "found"}) })
	assert.FileExists(t, cfg.HistoryDB)
}
