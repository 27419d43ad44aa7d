// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the settings collection name.
const Collection = "settings"

// Store provides access to the settings collection. Donation rules live in
// a single document with _id "donation_rules".
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetDonationRules returns the saved donation rules. If none exist,
// returns the defaults. Zero or empty fields in a saved document are
// filled from the defaults as well.
func (s *Store) GetDonationRules(ctx context.Context) (models.DonationRules, error) {
	var rules models.DonationRules
	err := s.c.FindOne(ctx, bson.M{"_id": models.DonationRulesID}).Decode(&rules)
	if err == mongo.ErrNoDocuments {
		return models.DefaultDonationRules(), nil
	}
	if err != nil {
		return models.DonationRules{}, err
	}
	return withDefaults(rules), nil
}

// SaveDonationRules updates the donation rules.
// Uses upsert so it works whether rules exist or not.
func (s *Store) SaveDonationRules(ctx context.Context, rules models.DonationRules) error {
	now := time.Now().UTC()
	rules.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"minimum_age":         rules.MinimumAge,
			"maximum_age":         rules.MaximumAge,
			"minimum_weight":      rules.MinimumWeight,
			"donation_interval":   rules.DonationInterval,
			"health_requirements": rules.HealthRequirements,
			"updated_at":          rules.UpdatedAt,
			"updated_by_name":     rules.UpdatedByName,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": models.DonationRulesID}, update, opts)
	return err
}

// Exists checks if donation rules have been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"_id": models.DonationRulesID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func withDefaults(r models.DonationRules) models.DonationRules {
	d := models.DefaultDonationRules()
	r.ID = models.DonationRulesID
	if r.MinimumAge <= 0 {
		r.MinimumAge = d.MinimumAge
	}
	if r.MaximumAge <= 0 {
		r.MaximumAge = d.MaximumAge
	}
	if r.MinimumWeight <= 0 {
		r.MinimumWeight = d.MinimumWeight
	}
	if r.DonationInterval <= 0 {
		r.DonationInterval = d.DonationInterval
	}
	if len(r.HealthRequirements) == 0 {
		r.HealthRequirements = d.HealthRequirements
	}
	return r
}
