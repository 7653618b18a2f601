package model

// Ledger entry types with a debit/credit placement rule. Any other type
// leaves both sides empty.
const (
	LedgerTypeInvoice   = "Invoice"
	LedgerTypeBill      = "Bill"
	LedgerTypeExpense   = "Expense"
	LedgerTypeQuotation = "Quotation"
)

// LedgerEntry is the bookkeeping-row projection of a processed email.
// MailID is the bare sender address and doubles as a legacy correlation key
// for the confirmation workflow.
type LedgerEntry struct {
	Date           string   `json:"date"`
	MailID         string   `json:"mail_id"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	VendorCustomer string   `json:"vendor_customer"`
	Debit          *float64 `json:"debit,omitempty"`
	Credit         *float64 `json:"credit,omitempty"`
}

// GLMapping is the general-ledger account annotation for a transaction.
type GLMapping struct {
	GLCode              string   `json:"gl_code"`
	AccountName         string   `json:"account_name"`
	AccountType         string   `json:"account_type"`
	Debit               *float64 `json:"debit,omitempty"`
	Credit              *float64 `json:"credit,omitempty"`
	MappingRulesApplied []string `json:"mapping_rules_applied"`
	ConfidenceScore     float64  `json:"confidence_score"`
}

// Amount returns whichever side of the entry is populated, zero otherwise.
func (e *LedgerEntry) Amount() float64 {
	if e.Debit != nil {
		return *e.Debit
	}
	if e.Credit != nil {
		return *e.Credit
	}
	return 0
}
