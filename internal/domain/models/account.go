// internal/domain/models/account.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles.
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleAdmin     = "admin"
)

// Account represents donors, recipients, and admins.
//
// NOTE:
//   - Donor-only fields (TotalDonations, DonationHistory, LastDonation) are
//     left empty for recipients and admins, and vice versa.
//   - EligibleToDonate is derived at read time from LastDonation and the
//     donation rules; it is never written back.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role         string             `bson:"role" json:"role"` // donor | recipient | admin
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	BloodType    string             `bson:"blood_type,omitempty" json:"blood_type,omitempty"`

	// Donor profile
	Age              int              `bson:"age,omitempty" json:"age,omitempty"`
	Weight           int              `bson:"weight,omitempty" json:"weight,omitempty"`
	TotalDonations   int              `bson:"total_donations" json:"total_donations"`
	DonationHistory  []DonationRecord `bson:"donation_history,omitempty" json:"donation_history,omitempty"`
	LastDonation     string           `bson:"last_donation,omitempty" json:"last_donation,omitempty"` // YYYY-MM-DD
	EligibleToDonate bool             `bson:"-" json:"eligible_to_donate"`

	// Recipient profile
	CurrentRequests []RequestRecord `bson:"current_requests,omitempty" json:"current_requests,omitempty"`
	RequestHistory  []RequestRecord `bson:"request_history,omitempty" json:"request_history,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasRole compares roles ignoring case and surrounding space, which some
// hand-edited documents carry.
func (a Account) HasRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), role)
}

func (a Account) IsDonor() bool     { return a.HasRole(RoleDonor) }
func (a Account) IsRecipient() bool { return a.HasRole(RoleRecipient) }

// FindDonation returns the index of the donation with the given ref
// (see DonationRecord.Ref), or -1. A scheduled entry wins over terminal
// entries sharing a legacy ref.
func (a Account) FindDonation(ref string) int {
	found := -1
	for i, d := range a.DonationHistory {
		if d.Ref() != ref {
			continue
		}
		if d.Status == DonationScheduled {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

// FindRequest returns the index of the request history entry with the
// given ref (see RequestRecord.Ref), or -1. When several legacy entries
// share a ref the pending one wins.
func (a Account) FindRequest(ref string) int {
	found := -1
	for i, r := range a.RequestHistory {
		if r.Ref() != ref {
			continue
		}
		if r.Status == RequestPending {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

// ValidRole reports whether role is one of the account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return true
	}
	return false
}
