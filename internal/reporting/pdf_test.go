package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(n int) *int { return &n }

func sampleRequest() *dto.PDFRequest {
	return &dto.PDFRequest{
		Year:    2020,
		Make:    "Toyota",
		Model:   "Camry",
		Mileage: 45000,
		ReliabilityData: &dto.ReportResponse{
			OverallScore: 81,
			Categories: dto.Categories{
				Engine:       score(88),
				Transmission: score(72),
			},
			CommonIssues: []dto.CommonIssue{{Description: "Water pump – early failure", CostToFix: "$500", Occurrence: "Rare", Mileage: "90,000"}},
			AIAnalysis:   "Solid, dependable sedan with few recurring faults.",
			DataSource:   "ai",
		},
	}
}

func TestGenerate_ProducesPDF(t *testing.T) {
	g := NewPDFGenerator()

	out, err := g.Generate(sampleRequest())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestGenerate_FreeTierReport(t *testing.T) {
	req := sampleRequest()
	req.ReliabilityData.Categories = dto.Categories{Engine: score(40), Transmission: score(65)}
	req.ReliabilityData.CommonIssues = []dto.CommonIssue{}
	req.ReliabilityData.DataSource = "placeholder"

	g := NewPDFGenerator()
	g.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	out, err := g.Generate(req)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerate_RequiresReportData(t *testing.T) {
	_, err := NewPDFGenerator().Generate(&dto.PDFRequest{Year: 2020, Make: "Toyota", Model: "Camry"})
	assert.ErrorIs(t, err, ErrNoReportData)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "2020-toyota-camry-report.pdf", Filename(sampleRequest()))
	assert.Equal(t, "2018-land-rover-range-rover-report.pdf", Filename(&dto.PDFRequest{Year: 2018, Make: "Land Rover", Model: "Range/Rover"}))
}
