package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cnkicrawl/internal/paper"
)

func sampleRecords() []paper.Record {
	return []paper.Record{
		{
			Title:         "基于深度学习的图像识别研究",
			Authors:       "张三; 李四",
			Journal:       "计算机学报",
			PublishedDate: "2023-05-10",
			CitationCount: "被引12",
			DownloadCount: "下载340",
		},
		{Title: "Only a title"},
		{
			Title:         "Commas, \"quotes\" and\nnewlines",
			Journal:       "Journal of Tests",
			PublishedDate: "2021年",
			DownloadCount: "下载5",
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "dir", "papers"+ext)
			in := sampleRecords()

			require.NoError(t, Write(path, in))

			out, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestWriteColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.xlsx")
	require.NoError(t, Write(path, sampleRecords()[:1]))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"标题", "作者", "期刊", "发表日期", "被引次数", "下载次数"}, rows[0])
	assert.Equal(t, []string{"基于深度学习的图像识别研究", "张三; 李四", "计算机学报", "2023-05-10", "被引12", "下载340"}, rows[1])
}

func TestWriteEmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "empty.xlsx")

	err := Write(path, nil)

	assert.ErrorIs(t, err, ErrNoRecords)
	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr), "no directory should be created for an empty export")
}

func TestWriteRejectsUnknownExtension(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "papers.txt"), sampleRecords())
	assert.Error(t, err)
}

func TestReadRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,URL\na,b\n"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name        string
		author      string
		institution string
		want        string
	}{
		{"author only", "陈晨", "", filepath.Join("output", "陈晨_papers.xlsx")},
		{"with institution", "张伟", "清华大学", filepath.Join("output", "张伟_清华大学_papers.xlsx")},
		{"unsafe characters", " a/b ", "c:d", filepath.Join("output", "a_b_c_d_papers.xlsx")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName("output", tt.author, tt.institution))
		})
	}
}
