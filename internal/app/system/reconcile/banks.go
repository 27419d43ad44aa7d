package reconcile

import (
	"context"
	"fmt"

	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.uber.org/zap"
)

// BankInput is an admin's new bank. Inventory values are parsed
// best-effort; anything unparseable starts at zero.
type BankInput struct {
	Name           string            `json:"name"`
	Address        string            `json:"address"`
	Phone          string            `json:"phone"`
	OperatingHours string            `json:"operating_hours"`
	Inventory      map[string]string `json:"inventory"`
}

// AddBank creates a bank, geocoding its address. A failed lookup places
// the bank at geocode.DefaultCoordinates.
func (w *Workflow) AddBank(ctx context.Context, s Session, in BankInput) (models.BloodBank, error) {
	if err := s.require(models.RoleAdmin); err != nil {
		return models.BloodBank{}, err
	}

	b := models.BloodBank{
		Name:           normalize.Name(htmlsanitize.PlainText(in.Name)),
		Address:        normalize.Name(htmlsanitize.PlainText(in.Address)),
		Phone:          htmlsanitize.PlainText(in.Phone),
		OperatingHours: htmlsanitize.PlainText(in.OperatingHours),
		Inventory:      make(map[string]models.InventoryCell, len(models.BloodTypes)),
	}
	ve := &ValidationError{}
	if b.Name == "" {
		ve.add("name", "bank name is required")
	}
	if b.Address == "" {
		ve.add("address", "bank address is required")
	}
	if err := ve.orNil(); err != nil {
		return models.BloodBank{}, err
	}
	for raw, v := range in.Inventory {
		bt := normalize.BloodType(raw)
		if models.ValidBloodType(bt) {
			b.Inventory[bt] = models.InventoryCell{Units: normalize.Units(v)}
		}
	}

	gctx, cancel := context.WithTimeout(ctx, timeouts.Notify())
	coords, _ := geocode.ResolveOrDefault(gctx, w.geocoder, b.Address, w.log)
	cancel()
	b.Coordinates = coords

	created, err := w.banks.Create(ctx, b)
	if err != nil {
		return models.BloodBank{}, fmt.Errorf("create bank: %w", err)
	}
	w.log.Info("blood bank added",
		zap.String("bank_id", created.ID.Hex()),
		zap.String("name", created.Name),
		zap.Float64("lat", created.Coordinates.Lat),
		zap.Float64("lng", created.Coordinates.Lng))
	return created, nil
}
