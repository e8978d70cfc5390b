package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rows []ShopListItem) []uint {
	out := make([]uint, len(rows))
	for i := range rows {
		out[i] = rows[i].ID
	}
	return out
}

func TestParseShopSort(t *testing.T) {
	tests := []struct {
		field, dir string
		want       ShopSort
	}{
		{"", "", ShopSort{SortByID, true}},
		{"bogus", "asc", ShopSort{SortByID, true}},
		{"id", "", ShopSort{SortByID, false}},
		{"averageRating", "", ShopSort{SortByAverageRating, false}},
		{"reviewCount", "DESC", ShopSort{SortByReviewCount, true}},
		{" totalGameMachines ", "asc", ShopSort{SortByTotalGameMachines, false}},
	}
	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseShopSort(tt.field, tt.dir))
		})
	}
	assert.Equal(t, "s.id DESC", ShopSort{Field: "nope"}.orderBy())
	assert.Equal(t, "average_rating DESC, s.id DESC", ShopSort{SortByAverageRating, true}.orderBy())
}

func TestSearchExcludesClosedShops(t *testing.T) {
	f := newFixture(t)
	open1 := f.shop("서울 강남구 역삼동 1")
	f.shop("서울 강남구 역삼동 2", closed())
	open2 := f.shop("서울 강남구 역삼동 3")

	rows, total, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{open2.ID, open1.ID}, ids(rows))
	for _, r := range rows {
		assert.True(t, r.IsOperating)
	}
}

func TestSearchTotalIsIndependentOfPage(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.shop(fmt.Sprintf("부산 해운대구 우동 %d", i))
	}
	f.shop("서울 마포구 서교동 1")

	filter := ShopFilter{Region1: "부산", Region2: "해운대구"}
	sort := ParseShopSort("", "")
	ctx := context.Background()

	tests := []struct {
		page int
		rows int
	}{
		{0, 10},
		{2, 5},
		{7, 0},
	}
	for _, tt := range tests {
		rows, total, err := f.svc.Shops.Search(ctx, filter, sort, NewPage(tt.page, 10, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(25), total, "page %d", tt.page)
		assert.Len(t, rows, tt.rows, "page %d", tt.page)
	}

	resp, err := f.svc.Shops.SearchPage(ctx, filter, sort, NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 10, resp.Size)

	// page * size overflows int for these indexes
	for _, huge := range []int{math.MaxInt / 3, math.MaxInt} {
		rows, total, err := f.svc.Shops.Search(ctx, filter, sort, Page{Number: huge, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, rows, "page %d", huge)
		assert.Equal(t, int64(25), total)
	}
}

func TestSearchHonoursConfiguredMaxPageSize(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		f.shop("서울 강남구")
	}
	svc := New(f.db, Options{Location: kst, MaxPageSize: 5})
	ctx := context.Background()

	rows, total, err := svc.Shops.Search(ctx, ShopFilter{}, ParseShopSort("", ""), Page{Number: 0, Size: 50})
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, int64(8), total)

	resp, err := svc.Shops.SearchPage(ctx, ShopFilter{}, ParseShopSort("", ""), Page{Number: 1, Size: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Size)
	assert.Len(t, resp.Content, 3)
	assert.Equal(t, 2, resp.TotalPages)

	u := f.user("a", "에이")
	for _, s := range rows {
		f.review(u, &models.Shop{ID: s.ID}, 3, 3, base)
	}
	mine, err := svc.Reviews.ListMine(ctx, u.Username, Page{Size: 50})
	require.NoError(t, err)
	assert.Len(t, mine.Content, 5)
}

func TestSearchAggregatesDefaultToZero(t *testing.T) {
	f := newFixture(t)
	f.shop("서울 강남구")

	rows, _, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Zero(t, r.ReviewCount)
	assert.Zero(t, r.AverageRating)
	assert.Zero(t, r.AverageMachineStrength)
	assert.Zero(t, r.AverageLargeCost)
	assert.Zero(t, r.AverageMediumCost)
	assert.Zero(t, r.AverageSmallCost)
	assert.Equal(t, DefaultThumbnail, r.ThumbnailURL)
}

func TestSearchAggregatesIgnoreDeletedReviews(t *testing.T) {
	f := newFixture(t)
	a := f.user("a", "에이")
	b := f.user("b", "비")
	shop := f.shop("서울 강남구")

	f.review(a, shop, 5, 4, base, intp(3000), nil, intp(1000))
	f.review(b, shop, 3, 2, base, intp(5000))
	gone := f.review(b, shop, 1, 1, base.AddDate(0, 0, 1))
	require.NoError(t, f.db.Model(gone).Update("is_deleted", true).Error)

	rows, _, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, int64(2), r.ReviewCount)
	assert.InDelta(t, 4.0, r.AverageRating, 1e-9)
	assert.InDelta(t, 3.0, r.AverageMachineStrength, 1e-9)
	assert.InDelta(t, 4000.0, r.AverageLargeCost, 1e-9)
	assert.Zero(t, r.AverageMediumCost)
	assert.InDelta(t, 1000.0, r.AverageSmallCost, 1e-9)
}

func TestSearchSortsByAggregate(t *testing.T) {
	f := newFixture(t)
	u := f.user("a", "에이")
	low := f.shop("서울 강남구")
	none := f.shop("서울 강남구")
	high := f.shop("서울 강남구")
	f.review(u, low, 2, 3, base)
	f.review(u, high, 5, 3, base)

	ctx := context.Background()
	rows, _, err := f.svc.Shops.Search(ctx, ShopFilter{}, ParseShopSort("averageRating", "desc"), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{high.ID, low.ID, none.ID}, ids(rows))

	rows, _, err = f.svc.Shops.Search(ctx, ShopFilter{}, ParseShopSort("averageRating", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{none.ID, low.ID, high.ID}, ids(rows))

	// equal review counts fall back to id descending
	rows, _, err = f.svc.Shops.Search(ctx, ShopFilter{}, ParseShopSort("reviewCount", "desc"), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{high.ID, low.ID, none.ID}, ids(rows))
}

func TestSearchUnknownSortFallsBackToIDDesc(t *testing.T) {
	f := newFixture(t)
	first := f.shop("서울 강남구", machines(50))
	second := f.shop("서울 강남구", machines(1))
	third := f.shop("서울 강남구", machines(20))

	rows, _, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("DROP TABLE", "asc"), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, ids(rows))

	rows, _, err = f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("totalGameMachines", "desc"), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, third.ID, second.ID}, ids(rows))
}

func TestSearchKeyword(t *testing.T) {
	f := newFixture(t)
	doll := f.shop("서울 강남구 테헤란로 1", named("Happy DOLL Land"))
	pct := f.shop("서울 강남구", named("Claw 100% Fun"))
	f.shop("서울 강남구", named("Claw 1000 Fun"))
	under := f.shop("서울 강남구", named("snake_case arcade"))
	f.shop("서울 강남구", named("snakeXcase arcade"))
	road := f.shop("부산 중구 테헤란로 9")

	tests := []struct {
		keyword string
		want    []uint
	}{
		{"doll", []uint{doll.ID}},
		{"100%", []uint{pct.ID}},
		{"_case", []uint{under.ID}},
		{"테헤란로", []uint{road.ID, doll.ID}},
		{"  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			rows, total, err := f.svc.Shops.Search(context.Background(), ShopFilter{Keyword: tt.keyword}, ParseShopSort("", ""), NewPage(0, 10, 0))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Equal(t, int64(6), total)
				return
			}
			assert.Equal(t, tt.want, ids(rows))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestSearchRegionFilter(t *testing.T) {
	f := newFixture(t)
	gangnam := f.shop("서울 강남구 역삼동")
	f.shop("서울 마포구 서교동")
	f.shop("경기 강남구")

	rows, total, err := f.svc.Shops.Search(context.Background(), ShopFilter{Region1: "서울", Region2: "강남구"}, ParseShopSort("", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uint{gangnam.ID}, ids(rows))

	_, total, err = f.svc.Shops.Search(context.Background(), ShopFilter{Region1: "서울"}, ParseShopSort("", ""), NewPage(0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearchThumbnails(t *testing.T) {
	f := newFixture(t)
	withTwo := f.shop("서울 강남구")
	imagesOnly := f.shop("서울 강남구")
	f.file(models.RefTypeDollShop, withTwo.ID, models.FileUsageThumbnail, "first.png")
	f.file(models.RefTypeDollShop, withTwo.ID, models.FileUsageThumbnail, "second.png")
	f.file(models.RefTypeDollShop, imagesOnly.ID, models.FileUsageImages, "gallery.png")
	// same id under another ref type must not leak in
	f.file(models.RefTypeReview, imagesOnly.ID, models.FileUsageThumbnail, "review.png")

	rows, _, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("id", "asc"), NewPage(0, 10, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, DefaultUploadPrefix+"first.png", rows[0].ThumbnailURL)
	assert.Equal(t, DefaultThumbnail, rows[1].ThumbnailURL)
}

func TestSearchIssuesBoundedQueries(t *testing.T) {
	f := newFixture(t)
	u := f.user("a", "에이")
	for i := 0; i < 50; i++ {
		s := f.shop(fmt.Sprintf("서울 강남구 %d", i))
		f.review(u, s, 1+i%5, 3, base)
		f.file(models.RefTypeDollShop, s.ID, models.FileUsageThumbnail, fmt.Sprintf("thumb-%d.png", i))
	}

	f.counter.Reset()
	rows, total, err := f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("averageRating", "desc"), NewPage(0, 50, 0))
	require.NoError(t, err)
	assert.Len(t, rows, 50)
	assert.Equal(t, int64(50), total)
	assert.Equal(t, int64(3), f.counter.Count(), f.counter.Statements())

	f.counter.Reset()
	rows, _, err = f.svc.Shops.Search(context.Background(), ShopFilter{}, ParseShopSort("", ""), NewPage(9, 50, 0))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(2), f.counter.Count(), f.counter.Statements())
}

func TestSearchForMap(t *testing.T) {
	f := newFixture(t)
	var want []uint
	for i := 0; i < 120; i++ {
		s := f.shop("서울 강남구", named(fmt.Sprintf("arcade %d", i)))
		want = append([]uint{s.ID}, want...)
	}
	f.shop("서울 강남구", closed())
	f.shop("부산 중구")

	items, err := f.svc.Shops.SearchForMap(context.Background(), ShopFilter{Region1: "서울", Keyword: "no such shop"})
	require.NoError(t, err)
	require.Len(t, items, 120)
	got := make([]uint, len(items))
	for i := range items {
		got[i] = items[i].ID
	}
	assert.Equal(t, want, got)
}

func TestShopGetByID(t *testing.T) {
	f := newFixture(t)
	s := f.shop("서울 강남구")
	f.file(models.RefTypeDollShop, s.ID, models.FileUsageThumbnail, "t.png")
	f.file(models.RefTypeDollShop, s.ID, models.FileUsageImages, "a.png")
	f.file(models.RefTypeDollShop, s.ID, models.FileUsageImages, "b.png")

	detail, err := f.svc.Shops.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.BusinessName, detail.BusinessName)
	assert.Equal(t, "/uploads/t.png", detail.ThumbnailURL)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, detail.ImageURLs)

	_, err = f.svc.Shops.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
