package models

import (
	"time"
)

type RefType string

const (
	RefTypeDollShop  RefType = "DOLL_SHOP"
	RefTypeReview    RefType = "REVIEW"
	RefTypeCommunity RefType = "COMMUNITY"
)

func (t RefType) Valid() bool {
	switch t {
	case RefTypeDollShop, RefTypeReview, RefTypeCommunity:
		return true
	}
	return false
}

type FileUsage string

const (
	FileUsageThumbnail  FileUsage = "THUMBNAIL"
	FileUsageImages     FileUsage = "IMAGES"
	FileUsageAttachment FileUsage = "ATTACHMENT"
)

func (u FileUsage) Valid() bool {
	switch u {
	case FileUsageThumbnail, FileUsageImages, FileUsageAttachment:
		return true
	}
	return false
}

// File is metadata of an uploaded file attached to a shop, review or post
// DB: files
type File struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RefID            uint      `gorm:"column:ref_id;not null;index:idx_files_ref,priority:2" json:"refId"`
	RefType          RefType   `gorm:"column:ref_type;size:20;not null;index:idx_files_ref,priority:1" json:"refType"`
	FileUsage        FileUsage `gorm:"column:file_usage;size:20;not null" json:"fileUsage"`
	OriginalFileName string    `gorm:"column:original_file_name;size:255;not null" json:"originalFileName"`
	StoredFileName   string    `gorm:"column:stored_file_name;size:255;not null;uniqueIndex:files_stored_file_name_key" json:"storedFileName"`
	FileSize         int64     `gorm:"column:file_size;not null;default:0" json:"fileSize"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (File) TableName() string {
	return "files"
}
