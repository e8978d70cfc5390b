package models

import (
	"time"
)

// ReviewDayLayout is the layout of Review.ReviewDay
const ReviewDayLayout = "2006-01-02"

// Review represents a user review of a shop
// DB: reviews
//
// ReviewDay is the server-local calendar day of creation. Together with the
// partial unique index it allows one live review per (user, shop, day).
type Review struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"column:user_id;not null;index:idx_reviews_user;uniqueIndex:idx_reviews_daily,priority:1,where:is_deleted = false" json:"userId"`
	ShopID          uint      `gorm:"column:shop_id;not null;index:idx_reviews_shop;uniqueIndex:idx_reviews_daily,priority:2" json:"dollShopId"`
	ReviewDay       string    `gorm:"column:review_day;size:10;not null;uniqueIndex:idx_reviews_daily,priority:3" json:"-"`
	Content         string    `gorm:"column:content;type:text;not null" json:"content"`
	Rating          int       `gorm:"column:rating;not null" json:"rating"`
	MachineStrength int       `gorm:"column:machine_strength;not null" json:"machineStrength"`
	LargeDollCost   *int      `gorm:"column:large_doll_cost" json:"largeDollCost,omitempty"`
	MediumDollCost  *int      `gorm:"column:medium_doll_cost" json:"mediumDollCost,omitempty"`
	SmallDollCost   *int      `gorm:"column:small_doll_cost" json:"smallDollCost,omitempty"`
	IsDeleted       bool      `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	CreatedAt       time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Shop *Shop `gorm:"foreignKey:ShopID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
