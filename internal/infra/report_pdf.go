package infra

// report_pdf.go renders the monthly shipment report as a one-page A4 PDF with
// go-pdf/fpdf:
//   - Title and report month
//   - One row per bottle type (units, COGS)
//   - Bold total COGS

import (
	"fmt"
	"io"
	"time"

	"caskledger/internal/dto"
	"caskledger/internal/ledger"

	"github.com/go-pdf/fpdf"
)

// WriteMonthlyReportPDF renders report to w. generatedAt is printed in the
// footer.
func WriteMonthlyReportPDF(w io.Writer, report *dto.MonthlyReportResponse, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Shipments and COGS", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Month: "+report.Month, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Table ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.5 // bottle type
	col2 := contentW * 0.2 // units
	col3 := contentW * 0.3 // cogs

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1, 7, "Bottle type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Units", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 7, "COGS", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(report.Shipments) == 0 {
		pdf.CellFormat(contentW, 7, "No shipments in this month.", "", 1, "L", false, 0, "")
	}
	for _, s := range report.Shipments {
		pdf.CellFormat(col1, 7, s.BottleType, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 7, fmt.Sprintf("%d", s.TotalUnits), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 7, ledger.Display(s.TotalCOGS), "", 1, "R", false, 0, "")
	}

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.Ln(1)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2, 8, "Total COGS", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 8, ledger.Display(report.TotalCOGS), "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Generated "+generatedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write report: %w", err)
	}
	return nil
}
