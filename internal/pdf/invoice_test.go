package pdf

import (
	"bytes"
	"testing"
)

func TestGenerateInvoice(t *testing.T) {
	data := InvoiceData{
		CompanyName:    "Test Co",
		CompanyAddress: "1 Test Street",
		CompanyPhone:   "+1 555 0100",
		CompanyEmail:   "accounts@testco.example.com",
		CompanyGSTIN:   "22AAAAA0000A1Z5",

		InvoiceNumber: "INV-77",
		InvoiceDate:   "01/02/2024",
		DueDate:       "15/02/2024",

		BilledToName:    "Vendor Ltd",
		BilledToAddress: "billing@vendor.example.com",

		Description: "Consulting services",
		Quantity:    1,
		Rate:        250,
		Subtotal:    250,
		GSTPercent:  18,
		GSTAmount:   45,
		TotalAmount: 295,

		BankName:    "Test Bank",
		AccountName: "Test Co",
		AccountNo:   "0000111122",
		IFSCCode:    "TEST0001234",
	}

	raw, err := GenerateInvoice(data)
	if err != nil {
		t.Fatalf("GenerateInvoice returned error: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("empty PDF output")
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Errorf("output does not start with PDF header: %q", raw[:8])
	}
}

func TestGenerateInvoiceEmptyFields(t *testing.T) {
	raw, err := GenerateInvoice(InvoiceData{InvoiceNumber: "INV-1"})
	if err != nil {
		t.Fatalf("GenerateInvoice returned error: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
