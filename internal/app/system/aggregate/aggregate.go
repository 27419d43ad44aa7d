// Package aggregate derives display data (urgent needs, headline stats,
// monthly trends and admin work queues) from a snapshot of accounts and
// banks. Everything here is pure: no I/O, and identical input always
// yields identical, identically ordered output.
package aggregate

import "github.com/dalemusser/bloodlink/internal/domain/models"

// Snapshot is the wholesale view of the store that every read is built from.
type Snapshot struct {
	Accounts []models.Account
	Banks    []models.BloodBank
	Rules    models.DonationRules
}

func recipients(accounts []models.Account) []models.Account {
	var out []models.Account
	for _, a := range accounts {
		if a.IsRecipient() {
			out = append(out, a)
		}
	}
	return out
}

func donors(accounts []models.Account) []models.Account {
	var out []models.Account
	for _, a := range accounts {
		if a.IsDonor() {
			out = append(out, a)
		}
	}
	return out
}
