package services

import (
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
)

// Options tune the services built by New
type Options struct {
	UploadPrefix     string
	DefaultThumbnail string
	Location         *time.Location
	MaxPageSize      int
}

// Services bundles the wired service graph shared by the handlers
type Services struct {
	Users     *UserService
	Files     *FileService
	Shops     *ShopService
	Reviews   *ReviewService
	Community *CommunityService
	Comments  *CommentService

	MaxPageSize int
}

func New(db *database.DB, opts Options) *Services {
	users := NewUserService(db)
	files := NewFileService(db, users, opts.UploadPrefix, opts.DefaultThumbnail)
	shops := NewShopService(db, files)
	community := NewCommunityService(db, users, files)

	maxPageSize := opts.MaxPageSize
	if maxPageSize <= 0 || maxPageSize > MaxPageSize {
		maxPageSize = MaxPageSize
	}

	reviews := NewReviewService(db, users, shops, files, opts.Location)
	comments := NewCommentService(db, users, community)

	// direct service callers get the same cap as the handlers
	shops.maxPageSize = maxPageSize
	reviews.maxPageSize = maxPageSize
	community.maxPageSize = maxPageSize
	comments.maxPageSize = maxPageSize

	return &Services{
		Users:       users,
		Files:       files,
		Shops:       shops,
		Reviews:     reviews,
		Community:   community,
		Comments:    comments,
		MaxPageSize: maxPageSize,
	}
}

// Page builds a clamped page request from raw query values
func (s *Services) Page(number, size int) Page {
	return NewPage(number, size, s.MaxPageSize)
}
