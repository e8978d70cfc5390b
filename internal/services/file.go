package services

import (
	"context"
	"strings"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
)

const (
	DefaultUploadPrefix = "/uploads/"
	DefaultThumbnail    = "/images/default.png"

	roleAdmin = "ADMIN"
)

// FileService resolves file associations into public URLs. Every batch
// lookup is a single IN query.
type FileService struct {
	db           *database.DB
	users        *UserService
	uploadPrefix string
	placeholder  string
}

func NewFileService(db *database.DB, users *UserService, uploadPrefix, placeholder string) *FileService {
	if uploadPrefix == "" {
		uploadPrefix = DefaultUploadPrefix
	}
	if !strings.HasSuffix(uploadPrefix, "/") {
		uploadPrefix += "/"
	}
	if placeholder == "" {
		placeholder = DefaultThumbnail
	}
	return &FileService{db: db, users: users, uploadPrefix: uploadPrefix, placeholder: placeholder}
}

type FileDTO struct {
	ID               uint             `json:"id"`
	RefID            uint             `json:"refId"`
	RefType          models.RefType   `json:"refType"`
	FileUsage        models.FileUsage `json:"fileUsage"`
	OriginalFileName string           `json:"originalFileName"`
	URL              string           `json:"url"`
	FileSize         int64            `json:"fileSize"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// FileInput describes a file that is already stored under StoredFileName
type FileInput struct {
	RefID            uint             `json:"refId" validate:"required"`
	RefType          models.RefType   `json:"refType" validate:"required"`
	FileUsage        models.FileUsage `json:"fileUsage" validate:"required"`
	OriginalFileName string           `json:"originalFileName" validate:"required,max=255"`
	StoredFileName   string           `json:"storedFileName" validate:"required,max=255"`
	FileSize         int64            `json:"fileSize" validate:"gte=0"`
}

// Placeholder is the thumbnail URL used when a shop has none
func (s *FileService) Placeholder() string {
	return s.placeholder
}

func (s *FileService) url(f *models.File) string {
	return s.uploadPrefix + f.StoredFileName
}

func (s *FileService) toDTO(f *models.File) FileDTO {
	return FileDTO{
		ID:               f.ID,
		RefID:            f.RefID,
		RefType:          f.RefType,
		FileUsage:        f.FileUsage,
		OriginalFileName: f.OriginalFileName,
		URL:              s.url(f),
		FileSize:         f.FileSize,
		CreatedAt:        f.CreatedAt,
	}
}

// ThumbnailPaths maps each ref id to its thumbnail URL. With several
// thumbnails the lowest file id wins. Ids without one are absent.
func (s *FileService) ThumbnailPaths(ctx context.Context, refType models.RefType, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var files []models.File
	err := s.db.WithContext(ctx).
		Where("ref_type = ? AND file_usage = ? AND ref_id IN ?", refType, models.FileUsageThumbnail, ids).
		Order("id ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}

	for i := range files {
		if _, ok := out[files[i].RefID]; !ok {
			out[files[i].RefID] = s.url(&files[i])
		}
	}
	return out, nil
}

// PathsByRefs groups file URLs by ref id. An empty usage matches any.
func (s *FileService) PathsByRefs(ctx context.Context, refType models.RefType, usage models.FileUsage, ids []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := s.db.WithContext(ctx).Where("ref_type = ? AND ref_id IN ?", refType, ids)
	if usage != "" {
		query = query.Where("file_usage = ?", usage)
	}

	var files []models.File
	if err := query.Order("id ASC").Find(&files).Error; err != nil {
		return nil, err
	}
	for i := range files {
		out[files[i].RefID] = append(out[files[i].RefID], s.url(&files[i]))
	}
	return out, nil
}

// Files lists files attached to one ref. An empty usage matches any.
func (s *FileService) Files(ctx context.Context, refType models.RefType, refID uint, usage models.FileUsage) ([]FileDTO, error) {
	query := s.db.WithContext(ctx).Where("ref_type = ? AND ref_id = ?", refType, refID)
	if usage != "" {
		query = query.Where("file_usage = ?", usage)
	}

	var files []models.File
	if err := query.Order("id ASC").Find(&files).Error; err != nil {
		return nil, err
	}

	out := make([]FileDTO, 0, len(files))
	for i := range files {
		out = append(out, s.toDTO(&files[i]))
	}
	return out, nil
}

// Paths is Files reduced to URLs
func (s *FileService) Paths(ctx context.Context, refType models.RefType, refID uint, usage models.FileUsage) ([]string, error) {
	files, err := s.Files(ctx, refType, refID, usage)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.URL)
	}
	return out, nil
}

// Thumbnail returns the thumbnail URL of one ref, or the placeholder
func (s *FileService) Thumbnail(ctx context.Context, refType models.RefType, refID uint) (string, error) {
	paths, err := s.ThumbnailPaths(ctx, refType, []uint{refID})
	if err != nil {
		return "", err
	}
	if p, ok := paths[refID]; ok {
		return p, nil
	}
	return s.placeholder, nil
}

// Register records metadata of an uploaded file. Reviews and posts accept
// files from their author only; shop files need the ADMIN role.
func (s *FileService) Register(ctx context.Context, username string, in FileInput, now time.Time) (*FileDTO, error) {
	if !in.RefType.Valid() {
		return nil, Validation("unknown refType %q", in.RefType)
	}
	if !in.FileUsage.Valid() {
		return nil, Validation("unknown fileUsage %q", in.FileUsage)
	}
	if in.FileSize < 0 {
		return nil, Validation("fileSize must not be negative")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefOwner(ctx, user, in.RefType, in.RefID); err != nil {
		return nil, err
	}

	file := models.File{
		RefID:            in.RefID,
		RefType:          in.RefType,
		FileUsage:        in.FileUsage,
		OriginalFileName: in.OriginalFileName,
		StoredFileName:   in.StoredFileName,
		FileSize:         in.FileSize,
		CreatedAt:        now,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, Validation("storedFileName %q already registered", in.StoredFileName)
		}
		return nil, err
	}

	dto := s.toDTO(&file)
	return &dto, nil
}

func (s *FileService) checkRefOwner(ctx context.Context, user *models.User, refType models.RefType, refID uint) error {
	db := s.db.WithContext(ctx)

	switch refType {
	case models.RefTypeDollShop:
		var count int64
		if err := db.Model(&models.Shop{}).Where("id = ?", refID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return NotFound("shop", refID)
		}
		if user.Role != roleAdmin {
			return PermissionDenied("shop files require the %s role", roleAdmin)
		}
	case models.RefTypeReview:
		var review models.Review
		if err := db.Select("id", "user_id").First(&review, refID).Error; err != nil {
			return notFoundOr(err, "review", refID)
		}
		if review.UserID != user.ID {
			return PermissionDenied("not the author of review %d", refID)
		}
	case models.RefTypeCommunity:
		var post models.Post
		if err := db.Select("id", "user_id").First(&post, refID).Error; err != nil {
			return notFoundOr(err, "post", refID)
		}
		if post.UserID != user.ID {
			return PermissionDenied("not the author of post %d", refID)
		}
	}
	return nil
}
