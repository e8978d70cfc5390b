package models

import (
	"strings"
	"time"
)

// Shop represents a doll-catching arcade
// DB: doll_shops
type Shop struct {
	ID                uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	BusinessName      string     `gorm:"column:business_name;size:255;not null" json:"businessName"`
	Longitude         float64    `gorm:"column:longitude;type:double precision;not null" json:"longitude"`
	Latitude          float64    `gorm:"column:latitude;type:double precision;not null" json:"latitude"`
	Address           string     `gorm:"column:address;size:500;not null" json:"address"`
	TotalGameMachines int        `gorm:"column:total_game_machines;not null;default:0" json:"totalGameMachines"`
	Phone             *string    `gorm:"column:phone;size:50" json:"phone,omitempty"`
	IsOperating       bool       `gorm:"column:is_operating;not null;index:idx_doll_shops_operating" json:"isOperating"`
	ApprovalDate      *time.Time `gorm:"column:approval_date;type:date" json:"approvalDate,omitempty"`
	Region1           string     `gorm:"column:region1;size:50;not null;default:'';index:idx_doll_shops_region,priority:1" json:"region1"`
	Region2           string     `gorm:"column:region2;size:50;not null;default:'';index:idx_doll_shops_region,priority:2" json:"region2"`
}

func (Shop) TableName() string {
	return "doll_shops"
}

// DeriveRegions returns the first two whitespace separated tokens of address.
// A missing token comes back as "".
func DeriveRegions(address string) (region1, region2 string) {
	tokens := strings.Fields(address)
	if len(tokens) > 0 {
		region1 = tokens[0]
	}
	if len(tokens) > 1 {
		region2 = tokens[1]
	}
	return region1, region2
}
