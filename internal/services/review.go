package services

import (
	"context"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/ggorockee/dollcatch/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	minScore = 1
	maxScore = 5
)

// ReviewInput carries the editable fields of a review
type ReviewInput struct {
	Content         string `json:"content" validate:"max=5000"`
	Rating          int    `json:"rating"`
	MachineStrength int    `json:"machineStrength"`
	LargeDollCost   *int   `json:"largeDollCost"`
	MediumDollCost  *int   `json:"mediumDollCost"`
	SmallDollCost   *int   `json:"smallDollCost"`
}

func (in ReviewInput) validate() error {
	if in.Rating < minScore || in.Rating > maxScore {
		return Validation("rating must be between %d and %d", minScore, maxScore)
	}
	if in.MachineStrength < minScore || in.MachineStrength > maxScore {
		return Validation("machineStrength must be between %d and %d", minScore, maxScore)
	}
	costs := []struct {
		name string
		v    *int
	}{
		{"largeDollCost", in.LargeDollCost},
		{"mediumDollCost", in.MediumDollCost},
		{"smallDollCost", in.SmallDollCost},
	}
	for _, c := range costs {
		if c.v != nil && *c.v < 0 {
			return Validation("%s must not be negative", c.name)
		}
	}
	return nil
}

type ReviewDTO struct {
	ID              uint      `json:"id"`
	UserID          uint      `json:"userId"`
	Username        string    `json:"username"`
	Nickname        string    `json:"nickname"`
	DollShopID      uint      `json:"dollShopId"`
	Content         string    `json:"content"`
	Rating          int       `json:"rating"`
	MachineStrength int       `json:"machineStrength"`
	LargeDollCost   *int      `json:"largeDollCost"`
	MediumDollCost  *int      `json:"mediumDollCost"`
	SmallDollCost   *int      `json:"smallDollCost"`
	ImageURLs       []string  `json:"imageUrls"`
	IsDeleted       bool      `json:"isDeleted"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newReviewDTO(r *models.Review, images []string) ReviewDTO {
	if images == nil {
		images = []string{}
	}
	dto := ReviewDTO{
		ID:              r.ID,
		UserID:          r.UserID,
		DollShopID:      r.ShopID,
		Content:         r.Content,
		Rating:          r.Rating,
		MachineStrength: r.MachineStrength,
		LargeDollCost:   r.LargeDollCost,
		MediumDollCost:  r.MediumDollCost,
		SmallDollCost:   r.SmallDollCost,
		ImageURLs:       images,
		IsDeleted:       r.IsDeleted,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.User != nil {
		dto.Username = r.User.Username
		dto.Nickname = r.User.Nickname
	}
	return dto
}

// ReviewAggregate is computed per request. Every field is zero for a shop
// without live reviews.
type ReviewAggregate struct {
	TotalReviews       int64   `json:"totalReviews"`
	AvgRating          float64 `json:"avgRating"`
	AvgMachineStrength float64 `json:"avgMachineStrength"`
	AvgLargeDollCost   float64 `json:"avgLargeDollCost"`
	AvgMediumDollCost  float64 `json:"avgMediumDollCost"`
	AvgSmallDollCost   float64 `json:"avgSmallDollCost"`
}

// ReviewService guards review writes and serves review reads.
// Calendar days are evaluated in loc.
type ReviewService struct {
	db    *database.DB
	users *UserService
	shops *ShopService
	files *FileService
	loc   *time.Location

	maxPageSize int
}

func NewReviewService(db *database.DB, users *UserService, shops *ShopService, files *FileService, loc *time.Location) *ReviewService {
	if loc == nil {
		loc = time.Local
	}
	return &ReviewService{db: db, users: users, shops: shops, files: files, loc: loc}
}

func (s *ReviewService) day(t time.Time) string {
	return t.In(s.loc).Format(models.ReviewDayLayout)
}

// SubmitReview checks, in order: the author exists, the shop exists, no live
// review by the author for the shop today, and the scores are in range.
// The first failing check is returned.
func (s *ReviewService) SubmitReview(ctx context.Context, username string, shopID uint, in ReviewInput, now time.Time) (*ReviewDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReviewService.SubmitReview")
	defer span.End()
	span.SetAttributes(attribute.Int64("shop.id", int64(shopID)))

	dto, err := s.submit(ctx, username, shopID, in, now)
	telemetry.RecordReviewWrite(ctx, "submit", err)
	return dto, err
}

func (s *ReviewService) submit(ctx context.Context, username string, shopID uint, in ReviewInput, now time.Time) (*ReviewDTO, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	ok, err := s.shops.exists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("shop", shopID)
	}

	day := s.day(now)
	var existing int64
	err = s.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND shop_id = ? AND review_day = ? AND is_deleted = ?", user.ID, shopID, day, false).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, Violation(RuleReviewDailyLimit, "one review per shop per day")
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	review := models.Review{
		UserID:          user.ID,
		ShopID:          shopID,
		ReviewDay:       day,
		Content:         in.Content,
		Rating:          in.Rating,
		MachineStrength: in.MachineStrength,
		LargeDollCost:   in.LargeDollCost,
		MediumDollCost:  in.MediumDollCost,
		SmallDollCost:   in.SmallDollCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		// a concurrent submit passed the check first
		if isUniqueViolation(err) {
			return nil, Violation(RuleReviewDailyLimit, "one review per shop per day")
		}
		return nil, err
	}

	review.User = user
	dto := newReviewDTO(&review, nil)
	return &dto, nil
}

// loadOwned loads a review with its author and checks ownership
func (s *ReviewService) loadOwned(ctx context.Context, reviewID uint, username string) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Joins("User").First(&review, reviewID).Error; err != nil {
		return nil, notFoundOr(err, "review", reviewID)
	}
	if review.User == nil || review.User.Username != username {
		return nil, PermissionDenied("review %d belongs to another user", reviewID)
	}
	return &review, nil
}

// UpdateReview overwrites content, scores and costs of a live review
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID uint, username string, in ReviewInput, now time.Time) (*ReviewDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReviewService.UpdateReview")
	defer span.End()

	dto, err := s.update(ctx, reviewID, username, in, now)
	telemetry.RecordReviewWrite(ctx, "update", err)
	return dto, err
}

func (s *ReviewService) update(ctx context.Context, reviewID uint, username string, in ReviewInput, now time.Time) (*ReviewDTO, error) {
	review, err := s.loadOwned(ctx, reviewID, username)
	if err != nil {
		return nil, err
	}
	if review.IsDeleted {
		return nil, Violation(RuleReviewDeleted, "review is deleted")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND is_deleted = ?", reviewID, false).
		Updates(map[string]any{
			"content":          in.Content,
			"rating":           in.Rating,
			"machine_strength": in.MachineStrength,
			"large_doll_cost":  in.LargeDollCost,
			"medium_doll_cost": in.MediumDollCost,
			"small_doll_cost":  in.SmallDollCost,
			"updated_at":       now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Violation(RuleReviewDeleted, "review is deleted")
	}

	review.Content = in.Content
	review.Rating = in.Rating
	review.MachineStrength = in.MachineStrength
	review.LargeDollCost = in.LargeDollCost
	review.MediumDollCost = in.MediumDollCost
	review.SmallDollCost = in.SmallDollCost
	review.UpdatedAt = now

	images, err := s.files.Paths(ctx, models.RefTypeReview, review.ID, "")
	if err != nil {
		return nil, err
	}
	dto := newReviewDTO(review, images)
	return &dto, nil
}

// DeleteReview soft-deletes a review. Deleting twice is a rule violation.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID uint, username string, now time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	err := s.delete(ctx, reviewID, username, now)
	telemetry.RecordReviewWrite(ctx, "delete", err)
	return err
}

func (s *ReviewService) delete(ctx context.Context, reviewID uint, username string, now time.Time) error {
	review, err := s.loadOwned(ctx, reviewID, username)
	if err != nil {
		return err
	}
	if review.IsDeleted {
		return Violation(RuleReviewAlreadyDeleted, "review is already deleted")
	}

	res := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND is_deleted = ?", reviewID, false).
		Updates(map[string]any{"is_deleted": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return Violation(RuleReviewAlreadyDeleted, "review is already deleted")
	}
	return nil
}

// ListByShop pages live reviews of a shop, newest first
func (s *ReviewService) ListByShop(ctx context.Context, shopID uint, page Page) (*PageResponse[ReviewDTO], error) {
	ok, err := s.shops.exists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("shop", shopID)
	}
	return s.list(ctx, "reviews.shop_id = ?", shopID, page)
}

// ListMine pages the caller's live reviews, newest first
func (s *ReviewService) ListMine(ctx context.Context, username string, page Page) (*PageResponse[ReviewDTO], error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, "reviews.user_id = ?", user.ID, page)
}

func (s *ReviewService) list(ctx context.Context, cond string, arg any, page Page) (*PageResponse[ReviewDTO], error) {
	page = page.clamp(s.maxPageSize)
	db := s.db.WithContext(ctx)

	var reviews []models.Review
	err := db.Joins("User").
		Where(cond, arg).
		Where("reviews.is_deleted = ?", false).
		Order("reviews.created_at DESC, reviews.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	images, err := s.files.PathsByRefs(ctx, models.RefTypeReview, "", ids)
	if err != nil {
		return nil, err
	}

	var total int64
	err = db.Model(&models.Review{}).
		Where(cond, arg).
		Where("reviews.is_deleted = ?", false).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	out := make([]ReviewDTO, len(reviews))
	for i := range reviews {
		out[i] = newReviewDTO(&reviews[i], images[reviews[i].ID])
	}
	return newPageResponse(out, total, page), nil
}

// Stats aggregates the live reviews of a shop
func (s *ReviewService) Stats(ctx context.Context, shopID uint) (*ReviewAggregate, error) {
	ok, err := s.shops.exists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("shop", shopID)
	}

	var agg ReviewAggregate
	err = s.db.WithContext(ctx).Model(&models.Review{}).
		Select(`COUNT(id) AS total_reviews,
			CAST(COALESCE(AVG(rating), 0) AS DOUBLE PRECISION) AS avg_rating,
			CAST(COALESCE(AVG(machine_strength), 0) AS DOUBLE PRECISION) AS avg_machine_strength,
			CAST(COALESCE(AVG(large_doll_cost), 0) AS DOUBLE PRECISION) AS avg_large_doll_cost,
			CAST(COALESCE(AVG(medium_doll_cost), 0) AS DOUBLE PRECISION) AS avg_medium_doll_cost,
			CAST(COALESCE(AVG(small_doll_cost), 0) AS DOUBLE PRECISION) AS avg_small_doll_cost`).
		Where("shop_id = ? AND is_deleted = ?", shopID, false).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
