package aggregate

import (
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// Hero holds the landing page headline numbers.
type Hero struct {
	DonationsMade int `json:"donations_made"`
	LivesSaved    int `json:"lives_saved"`
	BloodBanks    int `json:"blood_banks"`
}

// HeroStats sums donor donations, counts recipient history entries that are
// no longer pending, and counts banks.
func HeroStats(accounts []models.Account, banks []models.BloodBank) Hero {
	h := Hero{BloodBanks: len(banks)}
	for _, d := range donors(accounts) {
		h.DonationsMade += d.TotalDonations
	}
	for _, r := range recipients(accounts) {
		for _, req := range r.RequestHistory {
			if req.Status != models.RequestPending {
				h.LivesSaved++
			}
		}
	}
	return h
}

// AdminOverview holds the admin dashboard counters.
type AdminOverview struct {
	TotalDonations    int `json:"total_donations"`
	TotalRequests     int `json:"total_requests"`
	SuccessfulMatches int `json:"successful_matches"`
	PendingRequests   int `json:"pending_requests"`
}

// Overview computes the admin counters from request histories and donor
// totals.
func Overview(accounts []models.Account) AdminOverview {
	var o AdminOverview
	for _, d := range donors(accounts) {
		o.TotalDonations += d.TotalDonations
	}
	for _, r := range recipients(accounts) {
		o.TotalRequests += len(r.RequestHistory)
		for _, req := range r.RequestHistory {
			switch req.Status {
			case models.RequestApproved, models.RequestFulfilled:
				o.SuccessfulMatches++
			case models.RequestPending:
				o.PendingRequests++
			}
		}
	}
	return o
}

// MonthNames labels the trend buckets.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthTrend is one calendar month of activity.
type MonthTrend struct {
	Month     string `json:"month"`
	Donations int    `json:"donations"`
	Requests  int    `json:"requests"`
}

// MonthlyTrends buckets completed donations and all requests by month for
// now's calendar year. Records dated in other years, or with dates that do
// not parse, are skipped.
func MonthlyTrends(accounts []models.Account, now time.Time) [12]MonthTrend {
	var trends [12]MonthTrend
	for i := range trends {
		trends[i].Month = MonthNames[i]
	}
	year := now.Year()

	for _, a := range accounts {
		switch {
		case a.IsDonor():
			for _, d := range a.DonationHistory {
				if d.Status != models.DonationCompleted {
					continue
				}
				if t, ok := models.ParseDate(d.Date); ok && t.Year() == year {
					trends[t.Month()-1].Donations++
				}
			}
		case a.IsRecipient():
			for _, r := range a.RequestHistory {
				if t, ok := models.ParseDate(r.EffectiveDate()); ok && t.Year() == year {
					trends[t.Month()-1].Requests++
				}
			}
		}
	}
	return trends
}
