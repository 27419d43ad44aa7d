package bankstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the blood banks collection name.
const Collection = "blood_banks"

// Store provides access to the blood_banks collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new bank store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var (
	errNameRequired    = errors.New("bank name is required")
	errAddressRequired = errors.New("bank address is required")
	errBadBloodType    = errors.New("unknown blood type")
)

// List returns every bank ordered by name.
func (s *Store) List(ctx context.Context) ([]models.BloodBank, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BloodBank
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads a bank. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodBank, error) {
	var b models.BloodBank
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// FindByName returns all banks whose folded name equals name's.
func (s *Store) FindByName(ctx context.Context, name string) ([]models.BloodBank, error) {
	cur, err := s.c.Find(ctx, bson.M{"name_ci": text.Fold(normalize.Name(name))})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BloodBank
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a bank. Every blood type gets an inventory cell; negative
// or missing counts start at zero.
func (s *Store) Create(ctx context.Context, b models.BloodBank) (models.BloodBank, error) {
	b.ID = primitive.NewObjectID()
	b.Name = normalize.Name(b.Name)
	b.NameCI = text.Fold(b.Name)
	if b.Name == "" {
		return models.BloodBank{}, errNameRequired
	}
	if b.Address == "" {
		return models.BloodBank{}, errAddressRequired
	}

	inv := make(map[string]models.InventoryCell, len(models.BloodTypes))
	for _, bt := range models.BloodTypes {
		u := b.Units(bt)
		if u < 0 {
			u = 0
		}
		inv[bt] = models.InventoryCell{Units: u}
	}
	b.Inventory = inv

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.BloodBank{}, err
	}
	return b, nil
}

// DecUnitsIfAvailable atomically takes units of bloodType from the bank,
// but only while the cell holds at least that many. Returns false (and
// writes nothing) when stock is short or the bank does not exist.
func (s *Store) DecUnitsIfAvailable(ctx context.Context, id primitive.ObjectID, bloodType string, units int) (bool, error) {
	if !models.ValidBloodType(bloodType) {
		return false, errBadBloodType
	}
	field := models.InventoryField(bloodType)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, field: bson.M{"$gte": units}},
		bson.M{
			"$inc": bson.M{field: -units},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// IncUnits atomically adds units of bloodType to the bank. Returns false
// when the bank does not exist.
func (s *Store) IncUnits(ctx context.Context, id primitive.ObjectID, bloodType string, units int) (bool, error) {
	if !models.ValidBloodType(bloodType) {
		return false, errBadBloodType
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{models.InventoryField(bloodType): units},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
