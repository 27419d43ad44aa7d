// internal/domain/models/donationrules.go
package models

import "time"

// DonationRulesID is the _id of the singleton rules document in the
// settings collection.
const DonationRulesID = "donation_rules"

// DefaultDonationInterval is the minimum number of days between donations
// when no rules document exists or it leaves the interval unset.
const DefaultDonationInterval = 56

// DonationRules holds the donor eligibility rules edited by admins.
type DonationRules struct {
	ID                 string   `bson:"_id,omitempty" json:"-"`
	MinimumAge         int      `bson:"minimum_age" json:"minimum_age"`
	MaximumAge         int      `bson:"maximum_age" json:"maximum_age"`
	MinimumWeight      int      `bson:"minimum_weight" json:"minimum_weight"`       // kg
	DonationInterval   int      `bson:"donation_interval" json:"donation_interval"` // days
	HealthRequirements []string `bson:"health_requirements" json:"health_requirements"`

	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByName string     `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultDonationRules returns the rules used when none have been saved.
func DefaultDonationRules() DonationRules {
	return DonationRules{
		ID:               DonationRulesID,
		MinimumAge:       18,
		MaximumAge:       65,
		MinimumWeight:    50,
		DonationInterval: DefaultDonationInterval,
		HealthRequirements: []string{
			"No recent illness or infection",
			"No recent tattoos or piercings (within 6 months)",
			"No high-risk activities",
			"Adequate hemoglobin levels",
		},
	}
}

// Interval returns the donation interval in days, falling back to the
// default when unset.
func (r DonationRules) Interval() int {
	if r.DonationInterval <= 0 {
		return DefaultDonationInterval
	}
	return r.DonationInterval
}
