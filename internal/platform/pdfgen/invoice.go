// Package pdfgen renders printable invoices for bills.
package pdfgen

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceLine is a single billed item on the rendered invoice.
type InvoiceLine struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// Invoice carries everything the PDF needs; callers assemble it from
// the bill and the patient record.
type Invoice struct {
	BillNumber  string
	PatientName string
	IssuedAt    time.Time
	Lines       []InvoiceLine
	Subtotal    float64
	Tax         float64
	Discount    float64
	Total       float64
	Paid        float64
	Balance     float64
	Status      string
}

// Render produces the invoice as a PDF document.
func Render(inv Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Hospital Management", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	detail(pdf, "Invoice No", inv.BillNumber)
	detail(pdf, "Patient", inv.PatientName)
	detail(pdf, "Date", inv.IssuedAt.Format("2006-01-02"))
	detail(pdf, "Status", inv.Status)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(90, 8, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", float64(line.Quantity)*line.UnitPrice), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	amount(pdf, "Subtotal", inv.Subtotal, false)
	amount(pdf, "Tax", inv.Tax, false)
	amount(pdf, "Discount", -inv.Discount, false)
	amount(pdf, "Total", inv.Total, true)
	amount(pdf, "Paid", inv.Paid, false)
	amount(pdf, "Balance Due", inv.Balance, true)

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "This is a computer generated invoice.", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.BillNumber, err)
	}
	return buf.Bytes(), nil
}

func detail(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func amount(pdf *gofpdf.Fpdf, label string, value float64, bold bool) {
	if bold {
		pdf.SetFont("Arial", "B", 10)
	} else {
		pdf.SetFont("Arial", "", 10)
	}
	pdf.CellFormat(150, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", value), "", 1, "R", false, 0, "")
}
