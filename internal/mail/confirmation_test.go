package mail

import (
	"strings"
	"testing"
)

func TestConfirmationBodyLinks(t *testing.T) {
	body := ConfirmationBody("http://localhost:8080", "txn-42")

	if !strings.Contains(body, "http://localhost:8080/confirm?transaction_id=txn-42") {
		t.Error("confirm link missing")
	}
	if !strings.Contains(body, "http://localhost:8080/cancel?transaction_id=txn-42") {
		t.Error("cancel link missing")
	}
}

func TestConfirmationMessage(t *testing.T) {
	msg := ConfirmationMessage("accounts@company.example.com", "http://localhost:8080", "txn-42")

	if msg.To != "accounts@company.example.com" {
		t.Errorf("to = %q", msg.To)
	}
	if msg.Subject != "Please Confirm Your Transaction" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !msg.HTML {
		t.Error("confirmation message must be HTML")
	}
}
