package aggregate

import (
	"sort"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// PendingItem is a pending request awaiting an admin decision.
type PendingItem struct {
	Ref           string               `json:"ref"` // address for approve/reject
	RecipientID   string               `json:"recipient_id"`
	RecipientName string               `json:"recipient_name"`
	Request       models.RequestRecord `json:"request"`
}

// ScheduledItem is a booked donation awaiting confirmation.
type ScheduledItem struct {
	Ref            string                `json:"ref"` // address for confirm/reject
	DonorID        string                `json:"donor_id"`
	DonorName      string                `json:"donor_name"`
	DonorBloodType string                `json:"donor_blood_type"`
	Appointment    models.DonationRecord `json:"appointment"`
}

// PendingRequests lists every pending request history entry, newest first.
func PendingRequests(accounts []models.Account) []PendingItem {
	var out []PendingItem
	for _, a := range recipients(accounts) {
		for _, r := range a.RequestHistory {
			if r.Status == models.RequestPending {
				out = append(out, PendingItem{
					Ref:           r.Ref(),
					RecipientID:   a.ID.Hex(),
					RecipientName: a.FullName,
					Request:       r,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Request.EffectiveDate(), out[j].Request.EffectiveDate())
	})
	return out
}

// ScheduledAppointments lists every scheduled donation, newest first.
func ScheduledAppointments(accounts []models.Account) []ScheduledItem {
	var out []ScheduledItem
	for _, a := range donors(accounts) {
		for _, d := range a.DonationHistory {
			if d.Status == models.DonationScheduled {
				out = append(out, ScheduledItem{
					Ref:            d.Ref(),
					DonorID:        a.ID.Hex(),
					DonorName:      a.FullName,
					DonorBloodType: a.BloodType,
					Appointment:    d,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Appointment.Date, out[j].Appointment.Date)
	})
	return out
}

// newer orders dates descending; unparseable dates sort last.
func newer(a, b string) bool {
	ta, okA := models.ParseDate(a)
	tb, okB := models.ParseDate(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA:
		return true
	default:
		return false
	}
}

// InventoryCell is one blood type's stock at one bank.
type InventoryCell struct {
	BloodType string `json:"blood_type"`
	Units     int    `json:"units"`
	Critical  bool   `json:"critical"`
}

// BankInventory is one bank's row in the inventory table.
type BankInventory struct {
	BankID   string          `json:"bank_id"`
	BankName string          `json:"bank_name"`
	Cells    []InventoryCell `json:"cells"`
}

// InventoryView builds the inventory table, optionally filtered to one bank
// (by hex id) and one blood type. Cells below CriticalStockThreshold are
// flagged critical. Cells follow the models.BloodTypes order.
func InventoryView(banks []models.BloodBank, bankID, bloodType string) []BankInventory {
	var out []BankInventory
	for _, b := range banks {
		if bankID != "" && b.ID.Hex() != bankID {
			continue
		}
		row := BankInventory{BankID: b.ID.Hex(), BankName: b.Name}
		for _, bt := range models.BloodTypes {
			if bloodType != "" && bt != bloodType {
				continue
			}
			u := b.Units(bt)
			row.Cells = append(row.Cells, InventoryCell{
				BloodType: bt,
				Units:     u,
				Critical:  u < models.CriticalStockThreshold,
			})
		}
		out = append(out, row)
	}
	return out
}

// Dashboard is the admin dashboard view model.
type Dashboard struct {
	Overview  AdminOverview   `json:"overview"`
	Trends    [12]MonthTrend  `json:"trends"`
	Pending   []PendingItem   `json:"pending_requests"`
	Scheduled []ScheduledItem `json:"scheduled_appointments"`
	Inventory []BankInventory `json:"inventory"`
}

// AdminDashboard assembles the admin view from a snapshot.
func AdminDashboard(s Snapshot, now time.Time, bankID, bloodType string) Dashboard {
	return Dashboard{
		Overview:  Overview(s.Accounts),
		Trends:    MonthlyTrends(s.Accounts, now),
		Pending:   PendingRequests(s.Accounts),
		Scheduled: ScheduledAppointments(s.Accounts),
		Inventory: InventoryView(s.Banks, bankID, bloodType),
	}
}
