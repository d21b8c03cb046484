package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/tklauser/thesis-scripts/internal/parser"
)

const (
	inchToMm      = 25.4
	pdfPageWidth  = 8.5 * inchToMm // Letter portrait
	pdfPageHeight = 11 * inchToMm
	pdfMargin     = 0.5 * inchToMm
	pdfContentW   = pdfPageWidth - (2 * pdfMargin)
)

// Figure is a rendered PNG placed into the report.
type Figure struct {
	Key     string // unique image name inside the PDF
	Title   string
	Caption string
	PNG     []byte
	Ratio   float64 // height / width
}

// ExperimentReport is everything written into one experiment's PDF.
type ExperimentReport struct {
	ID       string
	Dir      string
	Params   *parser.Params
	Policy   string
	Steps    int // recorded time steps
	Figures  []Figure
	Warnings []string
	Created  time.Time
}

// NewExperimentReport starts a report with a fresh ID.
func NewExperimentReport(dir string) *ExperimentReport {
	return &ExperimentReport{
		ID:      uuid.NewString(),
		Dir:     dir,
		Created: time.Now(),
	}
}

// pdfStyler holds reusable styling and the flowing Y position.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageBottom  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageBottom:  pdfPageHeight - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 13)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["small"] = func() {
		s.pdf.SetFont("Arial", "", 8)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["warning"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageBottom {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text, styleName, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentW)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentW, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(fig Figure, width float64) {
	height := width * fig.Ratio
	if height > s.pageBottom-s.contentTopY-2*s.lineHeight {
		height = s.pageBottom - s.contentTopY - 2*s.lineHeight
		width = height / fig.Ratio
	}
	s.pdf.RegisterImageOptionsReader(fig.Key, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(fig.PNG))

	captionHeight := 0.0
	if fig.Caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentW-width)/2
	s.pdf.ImageOptions(fig.Key, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if fig.Caption != "" {
		s.addSpacer(1)
		s.writeParagraph(fig.Caption, "small", "C")
	}
	s.addSpacer(2)
}

func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentW
	}
	header := func() {
		s.applyStyle("tableHeader")
		x := pdfMargin
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageBottom {
			s.newPage()
			header()
		}
		s.applyStyle("tableCell")
		x := pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "L", false, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

// BuildPDFReport writes the report of one experiment directory.
func BuildPDFReport(filepath string, r *ExperimentReport) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(fmt.Sprintf("drobot experiment %s", r.Dir), true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph(fmt.Sprintf("Experiment %s", r.Dir), "h1", "C")
	styler.writeParagraph(fmt.Sprintf("Report %s, generated %s", r.ID, r.Created.Format(time.RFC3339)), "small", "C")
	styler.addSpacer(4)
	if r.Policy != "" {
		styler.writeParagraph(fmt.Sprintf("Decoding policy: %s, %d recorded time steps", r.Policy, r.Steps), "normal", "L")
	}

	if len(r.Warnings) > 0 {
		styler.writeParagraph("Warnings", "h2", "L")
		for _, w := range r.Warnings {
			styler.writeParagraph("- "+w, "warning", "L")
		}
		styler.addSpacer(3)
	}

	if r.Params != nil && r.Params.Len() > 0 {
		styler.writeParagraph("Parameters", "h2", "L")
		names, values := r.Params.Names(), r.Params.Values()
		rows := make([][]string, len(names))
		for i := range names {
			rows[i] = []string{names[i], values[i]}
		}
		styler.writeTable([]string{"Parameter", "Value"}, []float64{0.5, 0.5}, rows)
		styler.addSpacer(5)
	}

	if len(r.Figures) == 0 {
		styler.writeParagraph("No figures available.", "normal", "L")
		return pdf.OutputFileAndClose(filepath)
	}

	for _, fig := range r.Figures {
		styler.newPage()
		styler.writeParagraph(fig.Title, "h2", "L")
		if len(fig.PNG) == 0 {
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", fig.Title), "normal", "L")
			continue
		}
		styler.addImage(fig, pdfContentW*0.85)
	}

	return pdf.OutputFileAndClose(filepath)
}
