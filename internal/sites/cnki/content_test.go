package cnki

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnkicrawl/internal/paper"
)

func sampleContent() *PaperContent {
	return NewPaperContent(Query{Author: "张伟", Institution: "清华大学"}, Result{
		Outcome: OutcomeFound,
		Pages:   1,
		Records: []paper.Record{
			{Title: "图神经网络 <综述>", Authors: "张伟; 李四", Journal: "软件学报", PublishedDate: "2022-03-01", CitationCount: "被引8"},
			{Title: "Second", Authors: "张伟"},
		},
	})
}

func TestContentJSON(t *testing.T) {
	b, err := sampleContent().ToJSON()
	require.NoError(t, err)

	var got struct {
		Author      string         `json:"author"`
		Institution string         `json:"institution"`
		Outcome     string         `json:"outcome"`
		Pages       int            `json:"pages"`
		Records     []paper.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "张伟", got.Author)
	assert.Equal(t, "清华大学", got.Institution)
	assert.Equal(t, "found", got.Outcome)
	assert.Len(t, got.Records, 2)
}

func TestContentJSONEmptyRecordsIsArray(t *testing.T) {
	b, err := NewPaperContent(Query{Author: "李明"}, Result{Outcome: OutcomeEmpty}).ToJSON()

	require.NoError(t, err)
	assert.Contains(t, string(b), `"records":[]`)
	assert.NotContains(t, string(b), "institution")
}

func TestContentCSV(t *testing.T) {
	out, err := sampleContent().ToCSV()
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, paper.Columns, rows[0])
	assert.Equal(t, "图神经网络 <综述>", rows[1][0])
	assert.Equal(t, "被引8", rows[1][4])
	assert.Equal(t, "", rows[2][2])
}

func TestContentMarkdown(t *testing.T) {
	out, err := sampleContent().ToMarkdown()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# CNKI Search: 作者:张伟 AND 单位:清华大学\n"))
	assert.Contains(t, out, "2 papers (found, 1 pages)")
	assert.Contains(t, out, "## 2. Second")
	assert.Contains(t, out, "- Journal: 软件学报")
	assert.NotContains(t, out, "- Downloads:")
}

func TestContentHTMLEscapes(t *testing.T) {
	out, err := sampleContent().ToHTML()
	require.NoError(t, err)

	assert.Contains(t, out, "图神经网络 &lt;综述&gt;")
	assert.Equal(t, 2, strings.Count(out, "<li>"))
}

func TestContentText(t *testing.T) {
	out, err := sampleContent().ToText()
	require.NoError(t, err)

	assert.Contains(t, out, "Second")
	assert.Contains(t, out, "软件学报")
	assert.NotContains(t, out, "<li>")
}
