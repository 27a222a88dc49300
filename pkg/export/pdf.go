package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

// Page layout in millimetres on A4 portrait.
const (
	marginLeft   = 20.0
	indent       = 25.0
	diagramWidth = 170.0
	diagramMaxH  = 150.0
	pageBreakY   = 270.0
	rowHeight    = 8.0
	cellPadding  = 3.0
)

var colWidths = [3]float64{65, 40, 40}

// Result describes what an export produced.
type Result struct {
	WithDiagram bool
	DiagramErr  error // why the diagram was left out, nil when included
	Pages       int
	Bytes       int64
}

// PDFReport writes circuit reports.
type PDFReport struct {
	Title   string
	Diagram DiagramRenderer
	Now     func() time.Time
}

// NewPDFReport returns a report writer that embeds diagrams drawn by
// NewDiagram.
func NewPDFReport() *PDFReport {
	return &PDFReport{
		Title:   "Electronic Circuit Design",
		Diagram: NewDiagram(),
		Now:     time.Now,
	}
}

// Write renders the report to w. Nothing is written to w unless a complete
// document was produced.
func (r *PDFReport) Write(w io.Writer, snap circuit.Snapshot, rep simulate.Report) (Result, error) {
	var res Result
	var doc *fpdf.Fpdf

	if r.Diagram == nil {
		res.DiagramErr = fmt.Errorf("no diagram renderer")
	} else if png, err := r.Diagram.RenderPNG(snap); err != nil {
		res.DiagramErr = err
	} else {
		doc = r.withDiagram(png, rep)
		if err := doc.Error(); err != nil {
			res.DiagramErr = &ExportError{Stage: "pdf", Err: err}
			doc = nil
		}
	}

	if doc == nil {
		doc = r.textOnly(snap, rep)
		if err := doc.Error(); err != nil {
			return res, &ExportError{Stage: "fallback", Err: err}
		}
	} else {
		res.WithDiagram = true
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return res, &ExportError{Stage: "fallback", Err: err}
	}
	res.Pages = doc.PageCount()
	n, err := buf.WriteTo(w)
	res.Bytes = n
	if err != nil {
		return res, fmt.Errorf("export: write: %w", err)
	}
	return res, nil
}

// page wraps an fpdf document with the cursor and text translation.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func (r *PDFReport) newPage() *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("otc", true)
	pdf.AddPage()
	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	p.text(18, "", marginLeft, 20, r.Title)
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	p.text(10, "", marginLeft, 30, "Generated on: "+now().Format("2006-01-02 15:04:05"))
	return p
}

func (p *page) text(size float64, style string, x, y float64, s string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.Text(x, y, p.tr(s))
}

func (r *PDFReport) withDiagram(png []byte, rep simulate.Report) *fpdf.Fpdf {
	p := r.newPage()
	p.text(14, "", marginLeft, 40, "Circuit Diagram")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := p.pdf.RegisterImageOptionsReader("diagram", opts, bytes.NewReader(png))
	if info == nil || p.pdf.Err() {
		return p.pdf
	}
	w, h := diagramWidth, diagramWidth*info.Height()/info.Width()
	if h > diagramMaxH {
		w, h = w*diagramMaxH/h, diagramMaxH
	}
	p.pdf.ImageOptions("diagram", marginLeft, 45, w, h, false, opts, 0, "")

	p.y = 45 + h + 10
	p.results(rep)
	return p.pdf
}

func (r *PDFReport) textOnly(snap circuit.Snapshot, rep simulate.Report) *fpdf.Fpdf {
	p := r.newPage()
	p.text(12, "", marginLeft, 40, "Note: Circuit diagram could not be included")
	p.text(10, "", marginLeft, 50, fmt.Sprintf("Circuit contains %d components and %d wires", len(snap.Components), len(snap.Wires)))

	items := make([]string, len(snap.Components))
	for i, c := range snap.Components {
		items[i] = fmt.Sprintf("%d. %s (%s)", i+1, c.Name, c.Value)
	}
	p.pdf.SetFont("Helvetica", "", 10)
	lines := p.pdf.SplitText(p.tr(strings.Join(items, ", ")), diagramWidth)
	y := 60.0
	for _, line := range lines {
		p.pdf.Text(marginLeft, y, line)
		y += 5
	}

	p.y = 65 + float64(len(lines))*5
	p.results(rep)
	return p.pdf
}

// results writes the summary lines and the node table from p.y on.
func (p *page) results(rep simulate.Report) {
	yes := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}

	p.breakIfNeeded(40)
	p.text(14, "", marginLeft, p.y, "Simulation Results")
	p.y += 10
	p.text(12, "", marginLeft, p.y, "Circuit Summary")
	p.y += 7

	s := rep.Summary
	for _, line := range []string{
		fmt.Sprintf("Components: %d", s.ComponentCount),
		fmt.Sprintf("Wires: %d", s.WireCount),
		"Power Source: " + yes(s.HasPower),
		"Ground: " + yes(s.HasGround),
		"Circuit Complete: " + yes(s.IsComplete),
	} {
		p.text(10, "", indent, p.y, line)
		p.y += 5
	}
	p.y += 5

	p.breakIfNeeded(2 * rowHeight)
	p.text(12, "", marginLeft, p.y, "Node Analysis")
	p.y += 10
	p.header()
	for i, n := range rep.Nodes {
		if p.y > pageBreakY {
			p.pdf.AddPage()
			p.y = 20
			p.header()
		}
		if i%2 == 1 {
			p.pdf.SetFillColor(250, 250, 250)
			p.pdf.Rect(indent, p.y-5, tableWidth(), rowHeight, "F")
		}
		p.row("", n.Name, n.VoltageText, n.CurrentText)
	}
}

func (p *page) breakIfNeeded(room float64) {
	if p.y+room > pageBreakY {
		p.pdf.AddPage()
		p.y = 20
	}
}

func (p *page) header() {
	p.pdf.SetFillColor(240, 240, 240)
	p.pdf.Rect(indent, p.y-5, tableWidth(), rowHeight, "F")
	p.row("B", "Node", "Voltage", "Current")
}

func (p *page) row(style string, cells ...string) {
	p.pdf.SetDrawColor(0, 0, 0)
	p.pdf.SetLineWidth(0.2)
	x := indent
	for i, cell := range cells {
		p.text(10, style, x+cellPadding, p.y, cell)
		p.pdf.Rect(x, p.y-5, colWidths[i], rowHeight, "D")
		x += colWidths[i]
	}
	p.y += rowHeight
}

func tableWidth() float64 {
	return colWidths[0] + colWidths[1] + colWidths[2]
}
