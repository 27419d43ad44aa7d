package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insertAccount(ctx context.Context, a models.Account) models.Account {
	f.t.Helper()

	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.FullNameCI = text.Fold(a.FullName)
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := f.db.Collection("accounts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test account: %v", err)
	}
	return a
}

// CreateDonor creates a donor with no donation history.
func (f *Fixtures) CreateDonor(ctx context.Context, fullName, email, bloodType string) models.Account {
	f.t.Helper()
	return f.insertAccount(ctx, models.Account{
		Role:      models.RoleDonor,
		FullName:  fullName,
		Email:     email,
		BloodType: bloodType,
		Age:       30,
		Weight:    70,
	})
}

// CreateDonorWithHistory creates a donor with the given counters and history.
func (f *Fixtures) CreateDonorWithHistory(ctx context.Context, fullName, bloodType string, total int, lastDonation string, history []models.DonationRecord) models.Account {
	f.t.Helper()
	return f.insertAccount(ctx, models.Account{
		Role:            models.RoleDonor,
		FullName:        fullName,
		Email:           primitive.NewObjectID().Hex() + "@donor.test",
		BloodType:       bloodType,
		TotalDonations:  total,
		LastDonation:    lastDonation,
		DonationHistory: history,
	})
}

// CreateRecipient creates a recipient with no requests.
func (f *Fixtures) CreateRecipient(ctx context.Context, fullName, email, bloodType string) models.Account {
	f.t.Helper()
	return f.insertAccount(ctx, models.Account{
		Role:      models.RoleRecipient,
		FullName:  fullName,
		Email:     email,
		BloodType: bloodType,
	})
}

// CreateRecipientWithRequests creates a recipient whose requests are pending
// in both current_requests and request_history.
func (f *Fixtures) CreateRecipientWithRequests(ctx context.Context, fullName string, reqs ...models.RequestRecord) models.Account {
	f.t.Helper()

	var current, history []models.RequestRecord
	for _, r := range reqs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Date == "" {
			r.Date = models.FormatDate(time.Now())
		}
		if r.RequestDate == "" {
			r.RequestDate = r.Date
		}
		cur := r
		cur.Status = ""
		cur.Location = ""
		current = append(current, cur)

		h := r
		h.Status = models.RequestPending
		h.Location = models.LocationPendingAssignment
		history = append(history, h)
	}

	return f.insertAccount(ctx, models.Account{
		Role:            models.RoleRecipient,
		FullName:        fullName,
		Email:           primitive.NewObjectID().Hex() + "@recipient.test",
		CurrentRequests: current,
		RequestHistory:  history,
	})
}

// CreateAdmin creates an admin account.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.Account {
	f.t.Helper()
	return f.insertAccount(ctx, models.Account{
		Role:     models.RoleAdmin,
		FullName: fullName,
		Email:    email,
	})
}

// CreateBank creates a blood bank. Blood types missing from units start at 0.
func (f *Fixtures) CreateBank(ctx context.Context, name string, units map[string]int) models.BloodBank {
	f.t.Helper()

	inv := make(map[string]models.InventoryCell, len(models.BloodTypes))
	for _, bt := range models.BloodTypes {
		inv[bt] = models.InventoryCell{Units: units[bt]}
	}

	now := time.Now().UTC()
	bank := models.BloodBank{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Address:        "1 Test Street",
		OperatingHours: "9:00 AM - 5:00 PM",
		Coordinates:    models.Coordinates{Lat: 12.9165, Lng: 79.1325},
		Inventory:      inv,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("blood_banks").InsertOne(ctx, bank); err != nil {
		f.t.Fatalf("failed to create test bank: %v", err)
	}
	return bank
}

// LoadAccount re-reads an account, failing the test if it is missing.
func (f *Fixtures) LoadAccount(ctx context.Context, id primitive.ObjectID) models.Account {
	f.t.Helper()
	var a models.Account
	if err := f.db.Collection("accounts").FindOne(ctx, map[string]any{"_id": id}).Decode(&a); err != nil {
		f.t.Fatalf("failed to load account %s: %v", id.Hex(), err)
	}
	return a
}

// LoadBank re-reads a bank, failing the test if it is missing.
func (f *Fixtures) LoadBank(ctx context.Context, id primitive.ObjectID) models.BloodBank {
	f.t.Helper()
	var b models.BloodBank
	if err := f.db.Collection("blood_banks").FindOne(ctx, map[string]any{"_id": id}).Decode(&b); err != nil {
		f.t.Fatalf("failed to load bank %s: %v", id.Hex(), err)
	}
	return b
}
