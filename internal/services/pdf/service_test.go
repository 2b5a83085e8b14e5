package pdf

import (
	"bytes"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/models"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	data, err := svc.ConvertMarkdownToPDF("# Heading\n\nBody text with **bold** and *italic*.\n\n- item one\n- item two\n")
	if err != nil {
		t.Fatalf("ConvertMarkdownToPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}
}

func TestConvertMarkdownWithTable(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	md := "| Symbol | Change |\n|---|---|\n| AAPL | +2.1% |\n| TSLA | -0.8% |\n"
	data, err := svc.ConvertMarkdownToPDF(md)
	if err != nil {
		t.Fatalf("ConvertMarkdownToPDF: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty PDF output")
	}
}

func TestRenderReport(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	report := &models.Report{
		Title:       "AAPL Investment Analysis",
		GeneratedAt: "2026-03-15 10:30:00",
		RawMarkdown: "Some narrative without its own top heading.",
		Disclaimer:  "For information only.",
	}

	data, err := svc.RenderReport(report)
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
