// Package reporting renders a session-history PDF from SessionStore
// events, for post-mortem diagnostics (SPEC_FULL §B).
package reporting

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// GenerateSessionReport writes a PDF for one interface, one table row per
// event in the order given; the table continues onto further pages as needed.
func GenerateSessionReport(ifName string, events []ports.SessionEvent) (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("EAPOL session report: %s", ifName), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Session report: %s", ifName), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 8, "Time", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Endpoint", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Kind", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "State", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Detail", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range events {
		pdf.CellFormat(40, 7, e.Timestamp.Format("15:04:05.000"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, e.Endpoint, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, e.Kind, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, e.State, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, truncate(e.Detail, 40), "1", 1, "L", false, 0, "")
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
