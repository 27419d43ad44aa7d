// internal/app/system/mailer/templates.go
package mailer

import "fmt"

// Template ids used when none are configured.
const (
	DefaultRequestApprovedTemplate   = "request_approved"
	DefaultDonationConfirmedTemplate = "donation_confirmed"
)

// RequestApprovedData holds the params for the approval email.
type RequestApprovedData struct {
	RecipientName  string
	RecipientEmail string
	Units          int
	BloodType      string
	BankName       string
}

// Params renders the template params map.
func (d RequestApprovedData) Params() map[string]any {
	return map[string]any{
		"recipient_name":  d.RecipientName,
		"recipient_email": d.RecipientEmail,
		"units":           d.Units,
		"blood_type":      d.BloodType,
		"bank_name":       d.BankName,
	}
}

// DonationConfirmedData holds the params for the donation thank-you email.
type DonationConfirmedData struct {
	DonorName    string
	DonorEmail   string
	DonationDate string
	BankName     string
}

// Params renders the template params map.
func (d DonationConfirmedData) Params() map[string]any {
	return map[string]any{
		"donor_name":    d.DonorName,
		"donor_email":   d.DonorEmail,
		"donation_date": d.DonationDate,
		"bank_name":     d.BankName,
	}
}

// BuildRequestAlert returns the admin alert for a newly submitted
// non-low request.
func BuildRequestAlert(recipientName string, units int, bloodType, urgency string) (title, message string) {
	title = "Critical Blood Request!"
	message = fmt.Sprintf("%s: %d unit(s) of %s blood requested by %s.",
		alertLevel(urgency), units, bloodType, recipientName)
	return title, message
}

func alertLevel(urgency string) string {
	switch urgency {
	case "critical":
		return "CRITICAL"
	case "high":
		return "HIGH"
	default:
		return "URGENT"
	}
}
