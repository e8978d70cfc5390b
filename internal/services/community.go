package services

import (
	"context"
	"strings"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
	"gorm.io/gorm"
)

const maxTitleLength = 200

// PostSearchType selects the column matched by the list keyword
type PostSearchType string

const (
	PostSearchTitle    PostSearchType = "title"
	PostSearchNickname PostSearchType = "nickname"
)

type PostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return Validation("title is required")
	}
	if len([]rune(in.Title)) > maxTitleLength {
		return Validation("title must be at most %d characters", maxTitleLength)
	}
	if strings.TrimSpace(in.Content) == "" {
		return Validation("content is required")
	}
	return nil
}

type PostSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	UserID    uint      `json:"userId"`
	Nickname  string    `json:"nickname"`
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PostDetail struct {
	PostSummary
	Content     string    `json:"content"`
	Username    string    `json:"username"`
	ImageURLs   []string  `json:"imageUrls"`
	Attachments []FileDTO `json:"attachments"`
	// IsAuthor is set by the handler when the caller wrote the post
	IsAuthor bool `json:"isAuthor"`
}

func newPostSummary(p *models.Post) PostSummary {
	out := PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		UserID:    p.UserID,
		ViewCount: p.ViewCount,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.User != nil {
		out.Nickname = p.User.Nickname
	}
	return out
}

type CommunityService struct {
	db    *database.DB
	users *UserService
	files *FileService

	maxPageSize int
}

func NewCommunityService(db *database.DB, users *UserService, files *FileService) *CommunityService {
	return &CommunityService{db: db, users: users, files: files}
}

// Create stores a post authored by username and returns its id
func (s *CommunityService) Create(ctx context.Context, username string, in PostInput, now time.Time) (uint, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if err := in.validate(); err != nil {
		return 0, err
	}

	post := models.Post{
		UserID:    user.ID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return 0, err
	}
	return post.ID, nil
}

func (s *CommunityService) listScope(searchType PostSearchType, keyword string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("community.is_deleted = ?", false)
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return tx
		}
		pattern := containsPattern(keyword)
		switch searchType {
		case PostSearchTitle:
			tx = tx.Where(`LOWER(community.title) LIKE ? ESCAPE '\'`, pattern)
		case PostSearchNickname:
			tx = tx.Where(`community.user_id IN (SELECT id FROM users WHERE LOWER(nickname) LIKE ? ESCAPE '\')`, pattern)
		}
		return tx
	}
}

// List pages live posts, newest first. An unknown searchType applies no
// keyword filter.
func (s *CommunityService) List(ctx context.Context, searchType PostSearchType, keyword string, page Page) (*PageResponse[PostSummary], error) {
	page = page.clamp(s.maxPageSize)
	db := s.db.WithContext(ctx)
	scope := s.listScope(searchType, keyword)

	var posts []models.Post
	err := db.Joins("User").
		Scopes(scope).
		Order("community.created_at DESC, community.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	var total int64
	if err := db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}

	out := make([]PostSummary, len(posts))
	for i := range posts {
		out[i] = newPostSummary(&posts[i])
	}
	return newPageResponse(out, total, page), nil
}

// Detail bumps the view counter and returns the post with its files
func (s *CommunityService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("post", id)
	}

	var post models.Post
	if err := db.Joins("User").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "post", id)
	}
	return s.detail(ctx, &post)
}

func (s *CommunityService) detail(ctx context.Context, post *models.Post) (*PostDetail, error) {
	images, err := s.files.Paths(ctx, models.RefTypeCommunity, post.ID, models.FileUsageImages)
	if err != nil {
		return nil, err
	}
	attachments, err := s.files.Files(ctx, models.RefTypeCommunity, post.ID, models.FileUsageAttachment)
	if err != nil {
		return nil, err
	}

	out := &PostDetail{
		PostSummary: newPostSummary(post),
		Content:     post.Content,
		ImageURLs:   images,
		Attachments: attachments,
	}
	if post.User != nil {
		out.Username = post.User.Username
	}
	return out, nil
}

func (s *CommunityService) loadOwned(ctx context.Context, id uint, username string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Joins("User").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "post", id)
	}
	if post.User == nil || post.User.Username != username {
		return nil, PermissionDenied("post %d belongs to another user", id)
	}
	return &post, nil
}

// Update rewrites title and content. Author only.
func (s *CommunityService) Update(ctx context.Context, id uint, username string, in PostInput, now time.Time) (*PostDetail, error) {
	post, err := s.loadOwned(ctx, id, username)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, Violation(RulePostDeleted, "post is deleted")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Content = in.Content
	post.UpdatedAt = now
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"title": post.Title, "content": post.Content, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Violation(RulePostDeleted, "post is deleted")
	}
	return s.detail(ctx, post)
}

// Delete soft-deletes a post. Author only, deleting twice is rejected.
func (s *CommunityService) Delete(ctx context.Context, id uint, username string, now time.Time) error {
	post, err := s.loadOwned(ctx, id, username)
	if err != nil {
		return err
	}
	if post.IsDeleted {
		return Violation(RulePostAlreadyDeleted, "post is already deleted")
	}

	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"is_deleted": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return Violation(RulePostAlreadyDeleted, "post is already deleted")
	}
	return nil
}

// live reports whether a post exists and is not deleted
func (s *CommunityService) live(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Count(&count).Error
	return count > 0, err
}
