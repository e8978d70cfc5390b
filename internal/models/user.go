package models

import (
	"time"
)

// User represents the users table
// DB: users
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"column:username;size:255;not null;uniqueIndex:users_username_key" json:"username"`
	Email     string    `gorm:"column:email;size:255;not null;default:''" json:"email"`
	Nickname  string    `gorm:"column:nickname;size:100;not null" json:"nickname"`
	Provider  string    `gorm:"column:provider;size:20;not null;default:'local'" json:"provider"`
	Role      string    `gorm:"column:role;size:20;not null;default:'USER'" json:"role"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
