// internal/domain/models/bloodbank.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BloodTypes lists the eight ABO/Rh types tracked in every inventory, in
// display order.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// ValidBloodType reports whether t is one of BloodTypes.
func ValidBloodType(t string) bool {
	for _, bt := range BloodTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// InventoryCell is the stock held for one blood type.
type InventoryCell struct {
	Units int `bson:"units" json:"units"`
}

// BloodBank is a collection site holding inventory per blood type.
type BloodBank struct {
	ID             primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	Name           string                   `bson:"name" json:"name"`
	NameCI         string                   `bson:"name_ci" json:"-"`
	Address        string                   `bson:"address" json:"address"`
	Phone          string                   `bson:"phone,omitempty" json:"phone,omitempty"`
	OperatingHours string                   `bson:"operating_hours,omitempty" json:"operating_hours,omitempty"`
	Coordinates    Coordinates              `bson:"coordinates" json:"coordinates"`
	Inventory      map[string]InventoryCell `bson:"inventory" json:"inventory"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Units returns the stock for a blood type (0 when the cell is missing).
func (b BloodBank) Units(bloodType string) int {
	if b.Inventory == nil {
		return 0
	}
	return b.Inventory[bloodType].Units
}

// InventoryField returns the dotted document path of a blood type's unit
// counter, e.g. "inventory.O+.units".
func InventoryField(bloodType string) string {
	return "inventory." + bloodType + ".units"
}

// CriticalStockThreshold marks an inventory cell as low.
const CriticalStockThreshold = 10
