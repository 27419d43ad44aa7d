package eligibility

import (
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		last         string
		interval     int
		wantEligible bool
		wantDays     int
		wantNext     string
	}{
		{name: "no prior donation", last: "", interval: 56, wantEligible: true},
		{name: "unparseable date", last: "yesterday", interval: 56, wantEligible: true},
		{name: "exactly interval days", last: "2026-01-18", interval: 56, wantEligible: true, wantDays: 56, wantNext: "2026-03-15"},
		{name: "one day short", last: "2026-01-19", interval: 56, wantEligible: false, wantDays: 55, wantNext: "2026-03-16"},
		{name: "long ago", last: "2025-01-01", interval: 56, wantEligible: true, wantDays: 438, wantNext: "2025-02-26"},
		{name: "zero interval uses default", last: "2026-01-19", interval: 0, wantEligible: false, wantDays: 55, wantNext: "2026-03-16"},
		{name: "custom interval", last: "2026-03-01", interval: 14, wantEligible: true, wantDays: 14, wantNext: "2026-03-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.last, tt.interval, now)
			if got.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v", got.Eligible, tt.wantEligible)
			}
			if got.DaysSince != tt.wantDays {
				t.Errorf("DaysSince = %d, want %d", got.DaysSince, tt.wantDays)
			}
			if got.NextEligible != tt.wantNext {
				t.Errorf("NextEligible = %q, want %q", got.NextEligible, tt.wantNext)
			}
		})
	}
}

func TestCheck_PartialDayRoundsUp(t *testing.T) {
	// 55 days and one hour counts as 56 days.
	last := time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC)
	now := last.Add(55*day + time.Hour)

	got := Check(last.Format(time.RFC3339), 56, now)
	if !got.Eligible {
		t.Errorf("expected eligible after 55d1h, got %+v", got)
	}
}

func TestDaysBetween_Symmetric(t *testing.T) {
	a := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(10 * day)
	if DaysBetween(a, b) != 10 || DaysBetween(b, a) != 10 {
		t.Errorf("DaysBetween not symmetric: %d, %d", DaysBetween(a, b), DaysBetween(b, a))
	}
}

func TestForAccount(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	donor := models.Account{Role: models.RoleDonor, LastDonation: "2026-03-01"}

	if ForAccount(donor, models.DonationRules{}, now).Eligible {
		t.Error("expected ineligible with default interval")
	}
	if !ForAccount(donor, models.DonationRules{DonationInterval: 7}, now).Eligible {
		t.Error("expected eligible with 7 day interval")
	}
}
