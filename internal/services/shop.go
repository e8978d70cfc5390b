package services

import (
	"context"
	"strings"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/ggorockee/dollcatch/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// SortField is the closed set of orderings offered by shop search
type SortField string

const (
	SortByID                     SortField = "id"
	SortByAverageRating          SortField = "averageRating"
	SortByReviewCount            SortField = "reviewCount"
	SortByTotalGameMachines      SortField = "totalGameMachines"
	SortByAverageMachineStrength SortField = "averageMachineStrength"
	SortByAverageLargeCost       SortField = "averageLargeCost"
	SortByAverageMediumCost      SortField = "averageMediumCost"
	SortByAverageSmallCost       SortField = "averageSmallCost"
)

// sortColumns maps each field to its ORDER BY expression in the search query
var sortColumns = map[SortField]string{
	SortByID:                     "s.id",
	SortByAverageRating:          "average_rating",
	SortByReviewCount:            "review_count",
	SortByTotalGameMachines:      "s.total_game_machines",
	SortByAverageMachineStrength: "average_machine_strength",
	SortByAverageLargeCost:       "average_large_cost",
	SortByAverageMediumCost:      "average_medium_cost",
	SortByAverageSmallCost:       "average_small_cost",
}

// ParseSortField falls back to SortByID for anything outside the set
func ParseSortField(raw string) (SortField, bool) {
	f := SortField(strings.TrimSpace(raw))
	if _, ok := sortColumns[f]; ok {
		return f, true
	}
	return SortByID, false
}

type ShopSort struct {
	Field SortField
	Desc  bool
}

// ParseShopSort resolves query parameters. An unknown or absent field means
// id descending. A known field without a direction sorts ascending.
func ParseShopSort(field, direction string) ShopSort {
	f, ok := ParseSortField(field)
	if !ok {
		return ShopSort{Field: SortByID, Desc: true}
	}
	return ShopSort{Field: f, Desc: strings.EqualFold(strings.TrimSpace(direction), "desc")}
}

func (s ShopSort) orderBy() string {
	col, ok := sortColumns[s.Field]
	if !ok {
		return "s.id DESC"
	}
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}
	if s.Field == SortByID {
		return col + dir
	}
	return col + dir + ", s.id DESC"
}

// ShopFilter narrows search results. Non-operating shops are always
// excluded, there is no switch for it.
type ShopFilter struct {
	Region1 string
	Region2 string
	Keyword string
}

// ShopListItem is one search row: base fields, review aggregates and thumbnail
type ShopListItem struct {
	ID                     uint    `json:"id"`
	BusinessName           string  `json:"businessName"`
	Address                string  `json:"address"`
	Phone                  *string `json:"phone"`
	Longitude              float64 `json:"longitude"`
	Latitude               float64 `json:"latitude"`
	TotalGameMachines      int     `json:"totalGameMachines"`
	IsOperating            bool    `json:"isOperating"`
	Region1                string  `json:"region1"`
	Region2                string  `json:"region2"`
	AverageRating          float64 `json:"averageRating"`
	ReviewCount            int64   `json:"reviewCount"`
	AverageMachineStrength float64 `json:"averageMachineStrength"`
	AverageLargeCost       float64 `json:"averageLargeCost"`
	AverageMediumCost      float64 `json:"averageMediumCost"`
	AverageSmallCost       float64 `json:"averageSmallCost"`
	ThumbnailURL           string  `gorm:"-" json:"thumbnailUrl"`
}

// ShopMapItem is the marker shape used by the map listing
type ShopMapItem struct {
	ID                uint       `json:"id"`
	BusinessName      string     `json:"businessName"`
	Address           string     `json:"address"`
	Phone             *string    `json:"phone"`
	Longitude         float64    `json:"longitude"`
	Latitude          float64    `json:"latitude"`
	TotalGameMachines int        `json:"totalGameMachines"`
	ApprovalDate      *time.Time `json:"approvalDate"`
	IsOperating       bool       `json:"isOperating"`
}

type ShopDetail struct {
	models.Shop
	ThumbnailURL string   `json:"thumbnailUrl"`
	ImageURLs    []string `json:"imageUrls"`
}

const shopSearchColumns = `s.id, s.business_name, s.address, s.phone, s.longitude, s.latitude,
	s.total_game_machines, s.is_operating, s.region1, s.region2,
	CAST(COALESCE(AVG(r.rating), 0) AS DOUBLE PRECISION) AS average_rating,
	COUNT(r.id) AS review_count,
	CAST(COALESCE(AVG(r.machine_strength), 0) AS DOUBLE PRECISION) AS average_machine_strength,
	CAST(COALESCE(AVG(r.large_doll_cost), 0) AS DOUBLE PRECISION) AS average_large_cost,
	CAST(COALESCE(AVG(r.medium_doll_cost), 0) AS DOUBLE PRECISION) AS average_medium_cost,
	CAST(COALESCE(AVG(r.small_doll_cost), 0) AS DOUBLE PRECISION) AS average_small_cost`

type ShopService struct {
	db    *database.DB
	files *FileService

	maxPageSize int
}

func NewShopService(db *database.DB, files *FileService) *ShopService {
	return &ShopService{db: db, files: files}
}

// escapeLike escapes LIKE wildcards so the keyword matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func containsPattern(keyword string) string {
	return "%" + escapeLike(strings.ToLower(keyword)) + "%"
}

// shopPredicate applies the search filter to a query aliased as s
func shopPredicate(tx *gorm.DB, filter ShopFilter, withKeyword bool) *gorm.DB {
	tx = tx.Where("s.is_operating = ?", true)
	if r1 := strings.TrimSpace(filter.Region1); r1 != "" {
		tx = tx.Where("s.region1 = ?", r1)
	}
	if r2 := strings.TrimSpace(filter.Region2); r2 != "" {
		tx = tx.Where("s.region2 = ?", r2)
	}
	if kw := strings.TrimSpace(filter.Keyword); withKeyword && kw != "" {
		pattern := containsPattern(kw)
		tx = tx.Where(`(LOWER(s.business_name) LIKE ? ESCAPE '\' OR LOWER(s.address) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return tx
}

// Search returns one page of operating shops with review aggregates and
// thumbnails, plus the total match count. It always issues at most three
// statements: the page, the thumbnail lookup and the count.
func (s *ShopService) Search(ctx context.Context, filter ShopFilter, sort ShopSort, page Page) ([]ShopListItem, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "ShopService.Search")
	defer span.End()

	page = page.clamp(s.maxPageSize)
	db := s.db.WithContext(ctx)

	rows := make([]ShopListItem, 0, page.Size)
	err := shopPredicate(db.Table("doll_shops AS s"), filter, true).
		Select(shopSearchColumns).
		Joins("LEFT JOIN reviews r ON r.shop_id = s.id AND r.is_deleted = ?", false).
		Group("s.id").
		Order(sort.orderBy()).
		Offset(page.Offset()).
		Limit(page.Size).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	if len(rows) > 0 {
		ids := make([]uint, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		thumbs, err := s.files.ThumbnailPaths(ctx, models.RefTypeDollShop, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			if p, ok := thumbs[rows[i].ID]; ok {
				rows[i].ThumbnailURL = p
			} else {
				rows[i].ThumbnailURL = s.files.Placeholder()
			}
		}
	}

	var total int64
	if err := shopPredicate(db.Table("doll_shops AS s"), filter, true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.Int("shop.page.rows", len(rows)),
		attribute.Int64("shop.total", total),
		attribute.String("shop.sort", string(sort.Field)),
	)
	return rows, total, nil
}

// SearchPage wraps Search in the paged envelope
func (s *ShopService) SearchPage(ctx context.Context, filter ShopFilter, sort ShopSort, page Page) (*PageResponse[ShopListItem], error) {
	page = page.clamp(s.maxPageSize)
	rows, total, err := s.Search(ctx, filter, sort, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(rows, total, page), nil
}

// SearchForMap returns every operating shop in the regions, newest id first.
// The keyword is not applied.
func (s *ShopService) SearchForMap(ctx context.Context, filter ShopFilter) ([]ShopMapItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ShopService.SearchForMap")
	defer span.End()

	items := []ShopMapItem{}
	err := shopPredicate(s.db.WithContext(ctx).Table("doll_shops AS s"), filter, false).
		Select("s.id, s.business_name, s.address, s.phone, s.longitude, s.latitude, s.total_game_machines, s.approval_date, s.is_operating").
		Order("s.id DESC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("shop.map.rows", len(items)))
	return items, nil
}

// GetByID returns one shop with its thumbnail and gallery
func (s *ShopService) GetByID(ctx context.Context, id uint) (*ShopDetail, error) {
	var shop models.Shop
	if err := s.db.WithContext(ctx).First(&shop, id).Error; err != nil {
		return nil, notFoundOr(err, "shop", id)
	}

	thumb, err := s.files.Thumbnail(ctx, models.RefTypeDollShop, id)
	if err != nil {
		return nil, err
	}
	images, err := s.files.Paths(ctx, models.RefTypeDollShop, id, models.FileUsageImages)
	if err != nil {
		return nil, err
	}
	return &ShopDetail{Shop: shop, ThumbnailURL: thumb, ImageURLs: images}, nil
}

// exists reports whether a shop with id is in the catalog
func (s *ShopService) exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
