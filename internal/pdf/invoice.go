// Package pdf renders invoice/quotation PDFs attached to outbound replies.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// InvoiceData carries everything printed on a generated invoice.
type InvoiceData struct {
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string
	CompanyGSTIN   string

	InvoiceNumber string
	InvoiceDate   string
	DueDate       string

	BilledToName    string
	BilledToAddress string
	BilledToGSTIN   string

	Description string
	Quantity    int
	Rate        float64
	Subtotal    float64
	GSTPercent  float64
	GSTAmount   float64
	TotalAmount float64

	BankName    string
	AccountName string
	AccountNo   string
	IFSCCode    string
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// GenerateInvoice renders the invoice as PDF bytes: letterhead, billed-to
// block, a single line-item table, GST summary and payment instructions.
func GenerateInvoice(data InvoiceData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.Ln(5)

	pdf.CellFormat(0, 8, data.CompanyName, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, data.CompanyAddress, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Phone: "+data.CompanyPhone, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Email: "+data.CompanyEmail, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "GSTIN: "+data.CompanyGSTIN, "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.CellFormat(0, 8, "Invoice Number: "+data.InvoiceNumber, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Invoice Date: "+data.InvoiceDate, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Due Date: "+data.DueDate, "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Billed To:", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, data.BilledToName, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, data.BilledToAddress, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "GSTIN: "+data.BilledToGSTIN, "", 1, "", false, 0, "")
	pdf.Ln(5)

	// 表头
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(10, 8, "#", "1", 0, "", false, 0, "")
	pdf.CellFormat(80, 8, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Quantity", "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, "Rate", "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(10, 8, "1", "1", 0, "", false, 0, "")
	pdf.CellFormat(80, 8, data.Description, "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, fmt.Sprintf("%d", data.Quantity), "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, money(data.Rate), "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, money(data.Subtotal), "1", 1, "", false, 0, "")

	pdf.CellFormat(150, 8, "Subtotal", "", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, money(data.Subtotal), "1", 1, "", false, 0, "")
	pdf.CellFormat(150, 8, fmt.Sprintf("GST @%.0f%%", data.GSTPercent), "", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, money(data.GSTAmount), "1", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 8, "Total Amount", "", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, money(data.TotalAmount), "1", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.Ln(5)
	pdf.CellFormat(0, 8, "Payment Instructions:", "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Bank Name: "+data.BankName, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Account Name: "+data.AccountName, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "Account No: "+data.AccountNo, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, "IFSC Code: "+data.IFSCCode, "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(0, 8, "Note: Kindly make the payment on or before the due date.\nLate payment may attract interest at 1.5% per month.\nThank you for your business!", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
