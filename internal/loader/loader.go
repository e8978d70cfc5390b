// Package loader ingests the shop catalog from region JSON files.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/ggorockee/dollcatch/internal/models"
	"golang.org/x/sync/errgroup"
)

// ShopWriter persists parsed shops, returning how many rows were new
type ShopWriter interface {
	InsertShops(ctx context.Context, shops []models.Shop, batchSize int) (int64, error)
}

// Result summarizes one load
type Result struct {
	Files    int
	Parsed   int
	Skipped  int
	Inserted int64
}

type Loader struct {
	writer    ShopWriter
	batchSize int
	workers   int
}

func New(writer ShopWriter, batchSize int) *Loader {
	return &Loader{writer: writer, batchSize: batchSize, workers: 4}
}

// ReadDir parses every *.json file in dir concurrently. Unreadable or
// malformed files are logged and skipped, like bad records. Shops are
// returned ordered by id with duplicate ids dropped (first file wins).
func (l *Loader) ReadDir(ctx context.Context, dir string) ([]models.Shop, *Result, error) {
	log := logger.GetLogger("loader")

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(files)

	res := &Result{Files: len(files)}
	perFile := make([][]models.Shop, len(files))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := filepath.Base(path)

			data, err := os.ReadFile(path)
			if err != nil {
				log.Warnf("파일 읽기 실패: %s: %v", name, err)
				return nil
			}

			shops, skipped, err := ParseShops(name, data)
			if err != nil {
				log.Errorf("파일 파싱 실패: %v", err)
				return nil
			}
			for _, s := range skipped {
				log.Warnf("데이터 변환 실패: %v", s)
			}
			log.Infof("%s 파일 로드 완료: %d개 (skip %d)", name, len(shops), len(skipped))

			perFile[i] = shops
			mu.Lock()
			res.Skipped += len(skipped)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	seen := make(map[uint]struct{})
	var all []models.Shop
	for _, shops := range perFile {
		for _, s := range shops {
			if _, dup := seen[s.ID]; dup {
				res.Skipped++
				continue
			}
			seen[s.ID] = struct{}{}
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	res.Parsed = len(all)
	return all, res, nil
}

// Run reads dir and writes the shops
func (l *Loader) Run(ctx context.Context, dir string) (*Result, error) {
	shops, res, err := l.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(shops) == 0 {
		return res, nil
	}

	inserted, err := l.writer.InsertShops(ctx, shops, l.batchSize)
	if err != nil {
		return nil, fmt.Errorf("write shops: %w", err)
	}
	res.Inserted = inserted
	return res, nil
}

// DefaultUsers are the development accounts created by -seed-users
func DefaultUsers() []models.User {
	return []models.User{
		{Username: "kakao_12345", Email: "kakao_user@example.com", Nickname: "카톡러버", Provider: "KAKAO", Role: "USER", IsActive: true},
		{Username: "google_67890", Email: "google_user@example.com", Nickname: "구글러", Provider: "GOOGLE", Role: "USER", IsActive: true},
		{Username: "admin", Email: "admin@dollcatch.com", Nickname: "돌캐치관리자", Provider: "LOCAL", Role: "ADMIN", IsActive: true},
	}
}
