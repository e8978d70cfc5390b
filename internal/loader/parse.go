package loader

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ggorockee/dollcatch/internal/models"
)

const approvalDateLayout = "2006-01-02"

// ShopRecord is one entry of a region JSON file
type ShopRecord struct {
	ID                int64    `json:"id"`
	BusinessName      string   `json:"businessName"`
	Longitude         *float64 `json:"longitude"`
	Latitude          *float64 `json:"latitude"`
	Address           string   `json:"address"`
	TotalGameMachines int      `json:"totalGameMachines"`
	Phone             *string  `json:"phone"`
	IsOperating       *bool    `json:"isOperating"`
	ApprovalDate      string   `json:"approvalDate"`
}

// ToShop validates the record and derives the region fields
func (r *ShopRecord) ToShop() (models.Shop, error) {
	switch {
	case r.ID <= 0:
		return models.Shop{}, fmt.Errorf("id must be positive, got %d", r.ID)
	case strings.TrimSpace(r.BusinessName) == "":
		return models.Shop{}, fmt.Errorf("shop %d: businessName is empty", r.ID)
	case strings.TrimSpace(r.Address) == "":
		return models.Shop{}, fmt.Errorf("shop %d: address is empty", r.ID)
	case r.Longitude == nil || r.Latitude == nil:
		return models.Shop{}, fmt.Errorf("shop %d: coordinates missing", r.ID)
	case r.TotalGameMachines < 0:
		return models.Shop{}, fmt.Errorf("shop %d: totalGameMachines is negative", r.ID)
	}

	shop := models.Shop{
		ID:                uint(r.ID),
		BusinessName:      strings.TrimSpace(r.BusinessName),
		Longitude:         *r.Longitude,
		Latitude:          *r.Latitude,
		Address:           strings.TrimSpace(r.Address),
		TotalGameMachines: r.TotalGameMachines,
		IsOperating:       r.IsOperating != nil && *r.IsOperating,
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) != "" {
		phone := strings.TrimSpace(*r.Phone)
		shop.Phone = &phone
	}
	if r.ApprovalDate != "" {
		d, err := time.Parse(approvalDateLayout, r.ApprovalDate)
		if err != nil {
			return models.Shop{}, fmt.Errorf("shop %d: approvalDate: %w", r.ID, err)
		}
		shop.ApprovalDate = &d
	}
	shop.Region1, shop.Region2 = models.DeriveRegions(shop.Address)
	return shop, nil
}

// RecordError locates a record that could not be converted
type RecordError struct {
	File  string
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.File, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ParseShops decodes a JSON array of shop records. A malformed document is
// an error; a bad record is reported in skipped and the rest are kept.
func ParseShops(name string, data []byte) (shops []models.Shop, skipped []*RecordError, err error) {
	var raw []json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}

	shops = make([]models.Shop, 0, len(raw))
	for i, msg := range raw {
		var rec ShopRecord
		if err := sonic.Unmarshal(msg, &rec); err != nil {
			skipped = append(skipped, &RecordError{File: name, Index: i, Err: err})
			continue
		}
		shop, err := rec.ToShop()
		if err != nil {
			skipped = append(skipped, &RecordError{File: name, Index: i, Err: err})
			continue
		}
		shops = append(shops, shop)
	}
	return shops, skipped, nil
}
