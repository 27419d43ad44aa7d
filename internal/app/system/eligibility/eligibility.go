// Package eligibility decides whether a donor may book another donation.
package eligibility

import (
	"math"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

const day = 24 * time.Hour

// Result describes a donor's standing against the donation interval.
type Result struct {
	Eligible     bool   `json:"eligible"`
	Interval     int    `json:"interval_days"`
	DaysSince    int    `json:"days_since_last,omitempty"`
	NextEligible string `json:"next_eligible,omitempty"` // YYYY-MM-DD, empty when no prior donation
}

// Check evaluates lastDonation (YYYY-MM-DD or RFC 3339) against interval days.
// A donor with no recorded donation, or one whose date cannot be parsed, is
// eligible. Otherwise the donor is eligible once ceil(|now-last| / 24h)
// reaches interval. A non-positive interval uses the default.
func Check(lastDonation string, interval int, now time.Time) Result {
	if interval <= 0 {
		interval = models.DefaultDonationInterval
	}
	res := Result{Interval: interval}

	last, ok := models.ParseDate(lastDonation)
	if !ok {
		res.Eligible = true
		return res
	}

	res.DaysSince = DaysBetween(last, now)
	res.Eligible = res.DaysSince >= interval
	res.NextEligible = models.FormatDate(last.AddDate(0, 0, interval))
	return res
}

// DaysBetween returns ceil(|b-a| / 24h).
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

// ForAccount evaluates a donor account with the given rules.
func ForAccount(a models.Account, rules models.DonationRules, now time.Time) Result {
	return Check(a.LastDonation, rules.Interval(), now)
}
