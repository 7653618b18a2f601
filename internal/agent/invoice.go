package agent

import (
	"fmt"
	"strings"
	"time"

	"financeagent/config"
	"financeagent/internal/model"
	"financeagent/internal/pdf"
)

const invoiceGSTPercent = 18

// BuildInvoicePDF renders an invoice PDF for a processed email and returns
// it as a reply attachment. The filename combines the invoice number with
// the billed-to name, underscored.
func BuildInvoicePDF(company config.CompanyConfig, parsed *model.ParsedEmail, extracted *model.ExtractedData, entry *model.LedgerEntry) (*model.ReplyAttachment, error) {
	invoiceNumber := extracted.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = "INV-" + time.Now().Format("20060102-150405")
	}

	billedTo := entry.VendorCustomer
	if billedTo == "" {
		billedTo = bareAddress(parsed.Sender)
	}

	amount := entry.Amount()
	if amount == 0 && extracted.Amount != nil {
		amount = *extracted.Amount
	}
	gst := amount * invoiceGSTPercent / 100

	data := pdf.InvoiceData{
		CompanyName:    company.Name,
		CompanyAddress: company.Address,
		CompanyPhone:   company.Phone,
		CompanyEmail:   company.Email,
		CompanyGSTIN:   company.GSTIN,

		InvoiceNumber: invoiceNumber,
		InvoiceDate:   time.Now().Format("02/01/2006"),
		DueDate:       extracted.DueDate,

		BilledToName:    billedTo,
		BilledToAddress: bareAddress(parsed.Sender),

		Description: entry.Description,
		Quantity:    1,
		Rate:        amount,
		Subtotal:    amount,
		GSTPercent:  invoiceGSTPercent,
		GSTAmount:   gst,
		TotalAmount: amount + gst,

		BankName:    company.BankName,
		AccountName: company.AccountName,
		AccountNo:   company.AccountNo,
		IFSCCode:    company.IFSCCode,
	}

	raw, err := pdf.GenerateInvoice(data)
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}

	return &model.ReplyAttachment{
		Filename:    invoiceFilename(invoiceNumber, billedTo),
		ContentType: "application/pdf",
		Data:        raw,
	}, nil
}

func invoiceFilename(invoiceNumber, billedTo string) string {
	name := strings.ReplaceAll(billedTo, " ", "_")
	return fmt.Sprintf("%s_%s.pdf", invoiceNumber, name)
}
