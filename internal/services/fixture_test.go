package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/database/databasetest"
	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

// base is 2024-05-01 12:00 KST
var base = time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	db      *database.DB
	counter *database.QueryCounter
	svc     *Services
	nextID  uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, counter := databasetest.New(t)
	return &fixture{
		t:       t,
		db:      db,
		counter: counter,
		svc:     New(db, Options{Location: kst}),
		nextID:  1,
	}
}

func (f *fixture) user(username, nickname string) *models.User {
	f.t.Helper()
	u := models.User{
		Username:  username,
		Email:     username + "@example.com",
		Nickname:  nickname,
		Provider:  "KAKAO",
		Role:      "USER",
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(f.t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) admin(username string) *models.User {
	f.t.Helper()
	u := f.user(username, "관리자")
	require.NoError(f.t, f.db.Model(u).Update("role", roleAdmin).Error)
	u.Role = roleAdmin
	return u
}

type shopOpt func(*models.Shop)

func closed() shopOpt { return func(s *models.Shop) { s.IsOperating = false } }

func machines(n int) shopOpt { return func(s *models.Shop) { s.TotalGameMachines = n } }

func named(name string) shopOpt { return func(s *models.Shop) { s.BusinessName = name } }

// shop creates an operating shop at address with the next free id
func (f *fixture) shop(address string, opts ...shopOpt) *models.Shop {
	f.t.Helper()
	s := models.Shop{
		ID:                f.nextID,
		BusinessName:      fmt.Sprintf("shop-%d", f.nextID),
		Longitude:         127.0,
		Latitude:          37.5,
		Address:           address,
		TotalGameMachines: 10,
		IsOperating:       true,
	}
	f.nextID++
	for _, o := range opts {
		o(&s)
	}
	s.Region1, s.Region2 = models.DeriveRegions(s.Address)
	require.NoError(f.t, f.db.Create(&s).Error)
	return &s
}

// review inserts a review row directly, bypassing the write guard
func (f *fixture) review(u *models.User, s *models.Shop, rating, strength int, at time.Time, costs ...*int) *models.Review {
	f.t.Helper()
	r := models.Review{
		UserID:          u.ID,
		ShopID:          s.ID,
		ReviewDay:       at.In(kst).Format(models.ReviewDayLayout),
		Content:         "review",
		Rating:          rating,
		MachineStrength: strength,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	if len(costs) > 0 {
		r.LargeDollCost = costs[0]
	}
	if len(costs) > 1 {
		r.MediumDollCost = costs[1]
	}
	if len(costs) > 2 {
		r.SmallDollCost = costs[2]
	}
	require.NoError(f.t, f.db.Create(&r).Error)
	return &r
}

func (f *fixture) file(refType models.RefType, refID uint, usage models.FileUsage, stored string) *models.File {
	f.t.Helper()
	file := models.File{
		RefID:            refID,
		RefType:          refType,
		FileUsage:        usage,
		OriginalFileName: stored,
		StoredFileName:   stored,
		FileSize:         100,
		CreatedAt:        base,
	}
	require.NoError(f.t, f.db.Create(&file).Error)
	return &file
}

func (f *fixture) post(u *models.User, title string, at time.Time) *models.Post {
	f.t.Helper()
	p := models.Post{UserID: u.ID, Title: title, Content: "body of " + title, CreatedAt: at, UpdatedAt: at}
	require.NoError(f.t, f.db.Create(&p).Error)
	return &p
}

func intp(v int) *int { return &v }
