package models

import (
	"time"
)

// Post represents a community board post
// DB: community
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;index:idx_community_user" json:"userId"`
	Title     string    `gorm:"column:title;size:200;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	ViewCount int64     `gorm:"column:view_count;not null;default:0" json:"viewCount"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_community_created,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Post) TableName() string {
	return "community"
}

// Comment represents a comment on a community post
// DB: comment
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"column:community_id;not null;index:idx_comment_community" json:"communityId"`
	UserID      uint      `gorm:"column:user_id;not null" json:"userId"`
	Content     string    `gorm:"column:content;type:text;not null" json:"content"`
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string {
	return "comment"
}
