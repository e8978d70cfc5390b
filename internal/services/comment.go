package services

import (
	"context"
	"strings"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
)

const maxCommentLength = 1000

type CommentDTO struct {
	ID          uint      `json:"id"`
	CommunityID uint      `json:"communityId"`
	UserID      uint      `json:"userId"`
	Nickname    string    `json:"nickname"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newCommentDTO(c *models.Comment) CommentDTO {
	out := CommentDTO{
		ID:          c.ID,
		CommunityID: c.CommunityID,
		UserID:      c.UserID,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.User != nil {
		out.Nickname = c.User.Nickname
	}
	return out
}

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return Validation("content is required")
	}
	if len([]rune(content)) > maxCommentLength {
		return Validation("content must be at most %d characters", maxCommentLength)
	}
	return nil
}

type CommentService struct {
	db    *database.DB
	users *UserService
	posts *CommunityService

	maxPageSize int
}

func NewCommentService(db *database.DB, users *UserService, posts *CommunityService) *CommentService {
	return &CommentService{db: db, users: users, posts: posts}
}

func (s *CommentService) requireLivePost(ctx context.Context, postID uint) error {
	ok, err := s.posts.live(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound("post", postID)
	}
	return nil
}

// ListByPost pages live comments of a post, oldest first
func (s *CommentService) ListByPost(ctx context.Context, postID uint, page Page) (*PageResponse[CommentDTO], error) {
	if err := s.requireLivePost(ctx, postID); err != nil {
		return nil, err
	}

	page = page.clamp(s.maxPageSize)
	db := s.db.WithContext(ctx)

	var comments []models.Comment
	err := db.Joins("User").
		Where("comment.community_id = ? AND comment.is_deleted = ?", postID, false).
		Order("comment.created_at ASC, comment.id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	var total int64
	err = db.Model(&models.Comment{}).
		Where("community_id = ? AND is_deleted = ?", postID, false).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	out := make([]CommentDTO, len(comments))
	for i := range comments {
		out[i] = newCommentDTO(&comments[i])
	}
	return newPageResponse(out, total, page), nil
}

// Create adds a comment to a live post
func (s *CommentService) Create(ctx context.Context, username string, postID uint, content string, now time.Time) (*CommentDTO, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.requireLivePost(ctx, postID); err != nil {
		return nil, err
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}

	comment := models.Comment{
		CommunityID: postID,
		UserID:      user.ID,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	comment.User = user
	dto := newCommentDTO(&comment)
	return &dto, nil
}

func (s *CommentService) loadOwned(ctx context.Context, id uint, username string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Joins("User").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "comment", id)
	}
	if comment.User == nil || comment.User.Username != username {
		return nil, PermissionDenied("comment %d belongs to another user", id)
	}
	return &comment, nil
}

// Update rewrites the content of a live comment. Author only.
func (s *CommentService) Update(ctx context.Context, id uint, username, content string, now time.Time) (*CommentDTO, error) {
	comment, err := s.loadOwned(ctx, id, username)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, Violation(RuleCommentDeleted, "comment is deleted")
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"content": content, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Violation(RuleCommentDeleted, "comment is deleted")
	}

	comment.Content = content
	comment.UpdatedAt = now
	dto := newCommentDTO(comment)
	return &dto, nil
}

// Delete soft-deletes a comment. Author only, deleting twice is rejected.
func (s *CommentService) Delete(ctx context.Context, id uint, username string, now time.Time) error {
	comment, err := s.loadOwned(ctx, id, username)
	if err != nil {
		return err
	}
	if comment.IsDeleted {
		return Violation(RuleCommentAlreadyDeleted, "comment is already deleted")
	}

	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"is_deleted": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return Violation(RuleCommentAlreadyDeleted, "comment is already deleted")
	}
	return nil
}
