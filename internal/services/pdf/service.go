// Package pdf renders analysis reports as downloadable PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/specto/internal/models"
)

// Service converts report markdown into PDF bytes.
type Service struct {
	logger arbor.ILogger
}

func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// RenderReport lays out a full report document. The title and generated-at
// stamp come from the report metadata, the body is the markdown narrative,
// and the disclaimer closes the document.
func (s *Service) RenderReport(report *models.Report) ([]byte, error) {
	var doc strings.Builder

	if !strings.HasPrefix(strings.TrimSpace(report.RawMarkdown), "# ") {
		doc.WriteString(fmt.Sprintf("# %s\n\n", report.Title))
	}
	if report.GeneratedAt != "" {
		doc.WriteString(fmt.Sprintf("*Generated at %s*\n\n", report.GeneratedAt))
	}
	doc.WriteString(report.RawMarkdown)
	if report.Disclaimer != "" {
		doc.WriteString("\n\n---\n\n")
		doc.WriteString(report.Disclaimer)
	}

	return s.ConvertMarkdownToPDF(doc.String())
}

// ConvertMarkdownToPDF renders arbitrary markdown to a single A4 document.
func (s *Service) ConvertMarkdownToPDF(markdown string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Msg("Converting markdown to PDF")

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 10, 10)
	doc.SetAutoPageBreak(true, 10)
	doc.AddPage()
	doc.SetFont("Arial", "", 9)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)

	source := []byte(markdown)
	tree := md.Parser().Parse(text.NewReader(source))

	renderer := &renderer{
		doc:    doc,
		source: source,
		font:   "Arial",
		size:   9,
	}

	if err := ast.Walk(tree, renderer.walk); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render PDF")
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

// renderer walks the goldmark AST and draws each node with fpdf.
type renderer struct {
	doc       *fpdf.Fpdf
	source    []byte
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (r *renderer) restoreFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.doc.SetFont(r.font, style, r.size)
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.doc.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.doc.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.restoreFont()
	case *ast.CodeSpan:
		return r.codeSpan(node, entering)
	case *ast.FencedCodeBlock:
		if entering {
			r.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeBlock:
		if entering {
			r.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.doc.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			r.doc.Ln(5)
			r.doc.SetX(15 + float64(r.listLevel)*5)
			r.doc.Write(5, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			r.doc.Ln(2)
			r.doc.Line(15, r.doc.GetY(), 195, r.doc.GetY())
			r.doc.Ln(2)
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *renderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.doc.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.doc.SetFont(r.font, "B", size)
		return
	}
	r.doc.Ln(6)
	r.restoreFont()
}

func (r *renderer) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.doc.SetFont("Courier", "", r.size)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.doc.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.restoreFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *renderer) codeBlock(lines *text.Segments) {
	r.doc.Ln(2)
	r.doc.SetFont("Courier", "", r.size)
	r.doc.SetFillColor(245, 245, 245)

	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.doc.MultiCell(0, 5, string(line.Value(r.source)), "", "L", true)
	}

	r.doc.SetFillColor(255, 255, 255)
	r.restoreFont()
	r.doc.Ln(2)
}

// table renders a markdown table as a bordered grid. Column widths are split
// evenly; report tables are small enough that measured layout is not worth
// the complexity.
func (r *renderer) table(n *extast.Table) {
	var rows [][]string

	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.tableRow(row))
			case *extast.TableHeader:
				collect(row)
			}
		}
	}
	collect(n)

	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.doc.Ln(2)
	colWidth := 180.0 / float64(len(rows[0]))

	for i, row := range rows {
		if i == 0 {
			r.doc.SetFont(r.font, "B", 8)
			r.doc.SetFillColor(230, 230, 230)
		} else {
			r.doc.SetFont(r.font, "", 8)
			r.doc.SetFillColor(255, 255, 255)
		}

		for _, cell := range row {
			r.doc.CellFormat(colWidth, 6, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.doc.Ln(-1)
	}

	r.doc.Ln(3)
	r.restoreFont()
}

func (r *renderer) tableRow(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}
