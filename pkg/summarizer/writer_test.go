package summarizer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/certscan/pkg/mocks"
	"github.com/user/certscan/pkg/ports"
)

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	formatter := FormatFunc(func(s *Summary) string { return "report " + s.Device.Name })
	w := NewWriter(formatter, fs)

	path := filepath.Join("out", "report.md")
	summary := NewBuilder().WithDevice("mock", ports.DefaultConstraints()).Build()
	if err := w.Write(path, summary); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Write(path, summary); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	data, ok := fs.GetFile(path)
	if !ok {
		t.Fatal("expected report to be written")
	}
	if string(data) != "report mock" {
		t.Errorf("content = %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("disk full") }
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("report.md", NewSummary()); err == nil {
		t.Error("expected write error")
	}
}
