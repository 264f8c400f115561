// Package reporting renders reliability reports as PDF documents.
package reporting

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/go-pdf/fpdf"
)

var (
	colorPrimary   = [3]int{30, 58, 95}
	colorTextDark  = [3]int{44, 62, 80}
	colorTextMuted = [3]int{127, 140, 141}
	colorTableAlt  = [3]int{241, 245, 249}
	colorGood      = [3]int{46, 204, 113}
	colorFair      = [3]int{241, 196, 15}
	colorPoor      = [3]int{231, 76, 60}
)

var ErrNoReportData = errors.New("reliability_data is required")

// PDFGenerator turns a report object into a PDF document. Output depends only
// on the request and the generation time.
type PDFGenerator struct {
	now func() time.Time
}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{now: time.Now}
}

func (g *PDFGenerator) Generate(req *dto.PDFRequest) ([]byte, error) {
	if req == nil || req.ReliabilityData == nil {
		return nil, ErrNoReportData
	}
	report := req.ReliabilityData
	generatedAt := g.now().UTC()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetCreationDate(generatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(vehicleTitle(req), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(18)
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 10, "Vehicle Reliability Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 7, tr(vehicleTitle(req)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 5, fmt.Sprintf("Mileage: %d  |  Generated %s", req.Mileage, generatedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	writeOverall(pdf, report.OverallScore)
	writeCategories(pdf, report.Categories)
	writeIssues(pdf, tr, report.CommonIssues)
	writeAnalysis(pdf, tr, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds a download name such as "2020-toyota-camry-report.pdf".
func Filename(req *dto.PDFRequest) string {
	parts := []string{fmt.Sprint(req.Year), req.Make, req.Model, "report"}
	name := strings.ToLower(strings.Join(parts, "-"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	return name + ".pdf"
}

func vehicleTitle(req *dto.PDFRequest) string {
	return strings.TrimSpace(fmt.Sprintf("%d %s %s", req.Year, req.Make, req.Model))
}

func scoreColor(score int) [3]int {
	switch {
	case score >= 75:
		return colorGood
	case score >= 50:
		return colorFair
	default:
		return colorPoor
	}
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func writeOverall(pdf *fpdf.Fpdf, score int) {
	c := scoreColor(score)
	pdf.SetFillColor(c[0], c[1], c[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(60, 14, fmt.Sprintf("Overall %d/100", score), "", 1, "C", true, 0, "")
}

func writeCategories(pdf *fpdf.Fpdf, cats dto.Categories) {
	sectionTitle(pdf, "Category Scores")

	rows := []struct {
		label string
		score *int
	}{
		{"Engine", cats.Engine},
		{"Transmission", cats.Transmission},
		{"Electrical System", cats.ElectricalSystem},
		{"Brakes", cats.Brakes},
		{"Suspension", cats.Suspension},
		{"Fuel System", cats.FuelSystem},
	}

	pdf.SetFont("Arial", "", 10)
	for i, row := range rows {
		fill := i%2 == 1
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(70, 8, row.label, "", 0, "L", fill, 0, "")

		if row.score == nil {
			pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
			pdf.CellFormat(0, 8, "Premium only", "", 1, "L", fill, 0, "")
			continue
		}
		c := scoreColor(*row.score)
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.CellFormat(0, 8, fmt.Sprintf("%d/100", *row.score), "", 1, "L", fill, 0, "")
	}
}

func writeIssues(pdf *fpdf.Fpdf, tr func(string) string, issues []dto.CommonIssue) {
	if len(issues) == 0 {
		return
	}
	sectionTitle(pdf, "Common Issues")

	widths := []float64{70, 35, 30, 35}
	headers := []string{"Issue", "Cost to fix", "Occurrence", "Mileage"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
	for i, issue := range issues {
		fill := i%2 == 1
		cells := []string{issue.Description, issue.CostToFix, issue.Occurrence, issue.Mileage}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 7, tr(truncate(cell, 48)), "", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeAnalysis(pdf *fpdf.Fpdf, tr func(string) string, report *dto.ReportResponse) {
	sectionTitle(pdf, "Analysis")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.MultiCell(0, 5, tr(report.AIAnalysis), "", "L", false)

	if report.DataSource == "placeholder" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.MultiCell(0, 4, "Figures are general estimates; the detailed analysis service was unavailable when this report was produced.", "", "L", false)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
