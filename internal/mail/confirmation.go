package mail

import "fmt"

const confirmationSubject = "Please Confirm Your Transaction"

// ConfirmationBody renders the HTML notification carrying the two action
// links. Clicking confirm materializes the invoice and sends it; clicking
// cancel deletes the pending ledger entry.
func ConfirmationBody(baseURL, transactionID string) string {
	yesURL := fmt.Sprintf("%s/confirm?transaction_id=%s", baseURL, transactionID)
	noURL := fmt.Sprintf("%s/cancel?transaction_id=%s", baseURL, transactionID)

	return fmt.Sprintf(`<p>Dear Customer,</p>
<p>We have received your transaction request. Please confirm if you want to proceed.</p>
<p>
    <a href='%s' style='background-color:#28a745;color:white;padding:10px 20px;text-decoration:none;border-radius:5px;font-weight:bold;'>
        &#10003; Yes Confirm
    </a>
    &nbsp;
    <a href='%s' style='background-color:#dc3545;color:white;padding:10px 20px;text-decoration:none;border-radius:5px;font-weight:bold;'>
        &#10007; No, I Don't Want
    </a>
</p>
<p>If you click "No", your process will be cancelled and you will receive a confirmation email.</p>
<p>If you click "Yes Confirm", your invoice or quotation will be created and sent to you as a PDF.</p>
<p>Thank you!</p>`, yesURL, noURL)
}

// ConfirmationMessage builds the outbound confirmation mail for a pending
// transaction.
func ConfirmationMessage(to, baseURL, transactionID string) OutboundMessage {
	return OutboundMessage{
		To:      to,
		Subject: confirmationSubject,
		Body:    ConfirmationBody(baseURL, transactionID),
		HTML:    true,
	}
}
