package upiqr

import (
	"net/url"
	"strings"
)

// PaymentInfo holds the payment details encoded in the UPI QR printed on a
// bill. Amount stays a string, exactly as encoded.
type PaymentInfo struct {
	PayeeAddress string `json:"payee_address"`
	PayeeName    string `json:"payee_name,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Currency     string `json:"currency,omitempty"`
	Note         string `json:"note,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// Parse reads a upi://pay URI, the payload format of payment QR codes on
// Indian utility bills. It reports false when the text is something else
// (Aadhaar QRs, URLs, plain text).
func Parse(raw string) (PaymentInfo, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return PaymentInfo{}, false
	}
	if !strings.EqualFold(u.Scheme, "upi") || !strings.EqualFold(u.Host, "pay") {
		return PaymentInfo{}, false
	}

	q := u.Query()
	info := PaymentInfo{
		PayeeAddress: q.Get("pa"),
		PayeeName:    q.Get("pn"),
		Amount:       q.Get("am"),
		Currency:     q.Get("cu"),
		Note:         q.Get("tn"),
		Reference:    q.Get("tr"),
	}

	// A payment URI without a payee address cannot be paid; treat it as
	// not a payment QR.
	if info.PayeeAddress == "" {
		return PaymentInfo{}, false
	}
	return info, true
}
