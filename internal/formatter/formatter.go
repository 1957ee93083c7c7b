// Package formatter renders scraper.Content in one of the preview formats.
package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"cnkicrawl/internal/scraper"
)

// Formats lists the accepted format names.
var Formats = []string{"text", "markdown", "json", "csv", "html"}

// Valid reports whether format is one of Formats.
func Valid(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// FromExtension infers a format from a file name, or "" when the extension
// is not a preview format.
func FromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	}
	return ""
}

func Format(content scraper.Content, format string) (string, error) {
	switch format {
	case "html":
		return content.ToHTML()
	case "text":
		return content.ToText()
	case "markdown":
		return content.ToMarkdown()
	case "csv":
		return content.ToCSV()
	case "json":
		b, err := content.ToJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
