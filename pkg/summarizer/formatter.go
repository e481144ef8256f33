package summarizer

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Formatter renders a Summary as the content of a report file.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc lets a plain function act as a Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// JSONFormatter renders the summary as indented JSON for scripts and CI jobs.
var JSONFormatter Formatter = FormatFunc(func(summary *Summary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "{}\n"
	}
	return string(data) + "\n"
})

// FormatterFor picks the formatter for a report path: JSON for .json files,
// Markdown built with opts for anything else.
func FormatterFor(path string, opts ...Option) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONFormatter
	}
	return NewMarkdownFormatter(opts...)
}
