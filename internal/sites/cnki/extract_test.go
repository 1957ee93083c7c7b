package cnki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnkicrawl/internal/dom"
	"cnkicrawl/internal/paper"
)

func firstRow(t *testing.T, html string) dom.Element {
	t.Helper()
	row, err := parse(t, html).Find(dom.CSS(".row"))
	require.NoError(t, err)
	return row
}

func TestExtractFullRow(t *testing.T) {
	row := firstRow(t, `<div class="row">
		<div class="title"><a href="/detail/1">  基于深度学习的图像识别  </a></div>
		<div class="author"><a href="/author/1">张三</a><a href="/author/2"> </a><a href="/author/3">李四</a></div>
		<div class="source"><a href="/journal/jsjxb">计算机学报</a></div>
		<div class="meta">发表于 2023-05-10 ，2023年5月 网络首发</div>
		<span class="counter">42</span>
		<span class="cite-num">被引12</span>
		<span class="download-num">下载340</span>
	</div>`)

	rec, ok := NewExtractor(Improved()).Extract(row)

	require.True(t, ok)
	assert.Equal(t, paper.Record{
		Title:         "基于深度学习的图像识别",
		Authors:       "张三; 李四",
		Journal:       "计算机学报",
		PublishedDate: "2023-05-10",
		CitationCount: "被引12",
		DownloadCount: "下载340",
	}, rec)
}

func TestExtractTitleFallback(t *testing.T) {
	row := firstRow(t, `<div class="row"><h3>  Plain heading title </h3></div>`)

	rec, ok := NewExtractor(Improved()).Extract(row)

	require.True(t, ok)
	assert.Equal(t, "Plain heading title", rec.Title)
	assert.Empty(t, rec.Authors)
	assert.Empty(t, rec.Journal)
	assert.Empty(t, rec.PublishedDate)
}

func TestExtractTitleFirstAcceptedCandidate(t *testing.T) {
	// a.fz14 is blank, so the next title locator with text wins.
	row := firstRow(t, `<div class="row">
		<a class="fz14"> </a>
		<div class="literature-title"><a>Second choice</a></div>
		<h3><a>Later choice</a></h3>
	</div>`)

	rec, ok := NewExtractor(Improved()).Extract(row)

	require.True(t, ok)
	assert.Equal(t, "Second choice", rec.Title)
}

func TestExtractRejectsRowWithoutTitle(t *testing.T) {
	row := firstRow(t, `<div class="row">
		<div class="author"><a href="/author/1">张三</a></div>
		<div class="source"><a href="/journal/x">某期刊</a></div>
		<span class="cite">被引3</span>
		2022-01-01
	</div>`)

	_, ok := NewExtractor(Improved()).Extract(row)

	assert.False(t, ok)
}

func TestExtractCounterRequiresKeyword(t *testing.T) {
	row := firstRow(t, `<div class="row">
		<a class="fz14">T</a>
		<span class="cite-icon">99</span>
		<span class="download">1,024</span>
	</div>`)

	rec, ok := NewExtractor(Improved()).Extract(row)

	require.True(t, ok)
	assert.Empty(t, rec.CitationCount, "counter without a citation keyword must be ignored")
	assert.Empty(t, rec.DownloadCount)
}

func TestExtractCounterEnglishKeywordCaseInsensitive(t *testing.T) {
	row := firstRow(t, `<div class="row">
		<a class="fz14">T</a>
		<span class="cited">Cited by 7</span>
		<span class="downloads">Downloads: 12</span>
	</div>`)

	rec, ok := NewExtractor(Improved()).Extract(row)

	require.True(t, ok)
	assert.Equal(t, "Cited by 7", rec.CitationCount)
	assert.Equal(t, "Downloads: 12", rec.DownloadCount)
}

func TestExtractClassicProfile(t *testing.T) {
	doc := parse(t, resultPage(1, 1, ""))
	rows, err := doc.FindAll(dom.CSS("table.result-table-list tr:not(:first-child)"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rec, ok := NewExtractor(Classic()).Extract(rows[0])

	require.True(t, ok)
	assert.Equal(t, "Paper 1-1", rec.Title)
	assert.Equal(t, "作者1; 王五", rec.Authors)
	assert.Equal(t, "计算机学报", rec.Journal)
	assert.Equal(t, "2023-05-01", rec.PublishedDate)
	assert.Equal(t, "被引1", rec.CitationCount)
	assert.Equal(t, "下载100", rec.DownloadCount)
}

func TestMatchDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"iso", "...2023-05-10...", "2023-05-10"},
		{"slash", "published 2021/11/03 online", "2021/11/03"},
		{"dotted", "2019.07.01", "2019.07.01"},
		{"year month", "...2023年5月...", "2023年5月"},
		{"two digit month", "2023年12月刊", "2023年12月"},
		{"year only", "2020年第3期", "2020年"},
		{"iso wins over chinese", "2022年 ... 2023-05-10", "2023-05-10"},
		{"slash wins over dotted", "2019.07.01 2018/01/02", "2018/01/02"},
		{"none", "no date here 12-05", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchDate(tt.text))
		})
	}
}
