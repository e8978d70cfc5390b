package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostInputValidate(t *testing.T) {
	assert.NoError(t, PostInput{Title: "제목", Content: "본문"}.validate())
	assert.ErrorIs(t, PostInput{Title: "  ", Content: "본문"}.validate(), ErrValidation)
	assert.ErrorIs(t, PostInput{Title: "제목", Content: ""}.validate(), ErrValidation)
	assert.NoError(t, PostInput{Title: strings.Repeat("가", 200), Content: "x"}.validate())
	assert.ErrorIs(t, PostInput{Title: strings.Repeat("가", 201), Content: "x"}.validate(), ErrValidation)
}

func TestCommunityCreateAndDetail(t *testing.T) {
	f := newFixture(t)
	u := f.user("writer", "글쓴이")
	ctx := context.Background()

	id, err := f.svc.Community.Create(ctx, u.Username, PostInput{Title: "  인형 득템  ", Content: "오늘 성공"}, base)
	require.NoError(t, err)
	f.file(models.RefTypeCommunity, id, models.FileUsageImages, "p1.png")
	f.file(models.RefTypeCommunity, id, models.FileUsageAttachment, "guide.pdf")

	detail, err := f.svc.Community.Detail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "인형 득템", detail.Title)
	assert.Equal(t, "글쓴이", detail.Nickname)
	assert.Equal(t, "writer", detail.Username)
	assert.Equal(t, int64(1), detail.ViewCount)
	assert.Equal(t, []string{"/uploads/p1.png"}, detail.ImageURLs)
	require.Len(t, detail.Attachments, 1)
	assert.Equal(t, "/uploads/guide.pdf", detail.Attachments[0].URL)

	detail, err = f.svc.Community.Detail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.ViewCount)

	_, err = f.svc.Community.Create(ctx, "ghost", PostInput{Title: "t", Content: "c"}, base)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Community.Detail(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommunityList(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice", "DollMaster")
	bob := f.user("bob", "집게장인")
	ctx := context.Background()

	p1 := f.post(alice, "Big Claw tips", base)
	p2 := f.post(bob, "강남 후기", base.Add(time.Hour))
	p3 := f.post(bob, "claw_machine 추천", base.Add(2*time.Hour))
	gone := f.post(alice, "claw deleted", base.Add(3*time.Hour))
	require.NoError(t, f.db.Model(gone).Update("is_deleted", true).Error)

	postIDs := func(page *PageResponse[PostSummary]) []uint {
		out := make([]uint, len(page.Content))
		for i := range page.Content {
			out[i] = page.Content[i].ID
		}
		return out
	}

	tests := []struct {
		name       string
		searchType PostSearchType
		keyword    string
		want       []uint
	}{
		{"all", "", "", []uint{p3.ID, p2.ID, p1.ID}},
		{"title ignores case", PostSearchTitle, "CLAW", []uint{p3.ID, p1.ID}},
		{"title literal underscore", PostSearchTitle, "w_m", []uint{p3.ID}},
		{"nickname", PostSearchNickname, "dollmaster", []uint{p1.ID}},
		{"nickname partial", PostSearchNickname, "장인", []uint{p3.ID, p2.ID}},
		{"unknown type ignores keyword", "content", "nothing matches", []uint{p3.ID, p2.ID, p1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.Community.List(ctx, tt.searchType, tt.keyword, NewPage(0, 10, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(page))
			assert.Equal(t, int64(len(tt.want)), page.TotalElements)
		})
	}

	page, err := f.svc.Community.List(ctx, "", "", NewPage(1, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, postIDs(page))
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "DollMaster", page.Content[0].Nickname)
}

func TestCommunityUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	author := f.user("author", "작성자")
	other := f.user("other", "남")
	ctx := context.Background()
	p := f.post(author, "원래 제목", base)

	_, err := f.svc.Community.Update(ctx, p.ID, other.Username, PostInput{Title: "탈취", Content: "x"}, base)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	var stored models.Post
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, "원래 제목", stored.Title)

	_, err = f.svc.Community.Update(ctx, p.ID, author.Username, PostInput{Title: "", Content: "x"}, base)
	assert.ErrorIs(t, err, ErrValidation)

	detail, err := f.svc.Community.Update(ctx, p.ID, author.Username, PostInput{Title: "새 제목", Content: "새 본문"}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "새 제목", detail.Title)
	assert.Equal(t, "새 본문", detail.Content)
	assert.Zero(t, detail.ViewCount)

	assert.ErrorIs(t, f.svc.Community.Delete(ctx, p.ID, other.Username, base), ErrPermissionDenied)
	require.NoError(t, f.svc.Community.Delete(ctx, p.ID, author.Username, base))

	err = f.svc.Community.Delete(ctx, p.ID, author.Username, base)
	requireRule(t, err, RulePostAlreadyDeleted)
	_, err = f.svc.Community.Update(ctx, p.ID, author.Username, PostInput{Title: "t", Content: "c"}, base)
	requireRule(t, err, RulePostDeleted)

	_, err = f.svc.Community.Detail(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// deleteBeforeUpdate soft-deletes the row inside the next update on table,
// as if a concurrent delete won the race after the ownership check.
func deleteBeforeUpdate(t *testing.T, f *fixture, table string, id uint) *bool {
	t.Helper()
	fired := new(bool)
	err := f.db.Callback().Update().Before("gorm:update").Register("test:concurrent_delete_"+table, func(tx *gorm.DB) {
		if *fired || tx.Statement.Table != table {
			return
		}
		*fired = true
		tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE "+table+" SET is_deleted = ? WHERE id = ?", true, id)
	})
	require.NoError(t, err)
	return fired
}

func TestCommunityUpdateLosesToConcurrentDelete(t *testing.T) {
	f := newFixture(t)
	author := f.user("author", "작성자")
	p := f.post(author, "원래 제목", base)

	fired := deleteBeforeUpdate(t, f, "community", p.ID)
	_, err := f.svc.Community.Update(context.Background(), p.ID, author.Username, PostInput{Title: "새 제목", Content: "새 본문"}, base)
	assert.True(t, *fired)
	requireRule(t, err, RulePostDeleted)

	var stored models.Post
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, "원래 제목", stored.Title)
	assert.True(t, stored.IsDeleted)
}

func TestCommunityDetailAuthorFlagDefaultsFalse(t *testing.T) {
	f := newFixture(t)
	author := f.user("author", "작성자")
	p := f.post(author, "글", base)

	detail, err := f.svc.Community.Detail(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsAuthor)
	assert.Equal(t, author.ID, detail.UserID)
}
