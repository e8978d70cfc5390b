package loader

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/ggorockee/dollcatch/internal/config"
	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

var shopColumns = []string{
	"id", "business_name", "longitude", "latitude", "address", "total_game_machines",
	"phone", "is_operating", "approval_date", "region1", "region2",
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// buildShopInsert renders one batch. Existing ids are left untouched so
// region fields stay as first derived.
func buildShopInsert(shops []models.Shop) (string, []any, error) {
	q := builder().Insert("doll_shops").Columns(shopColumns...)
	for _, s := range shops {
		q = q.Values(s.ID, s.BusinessName, s.Longitude, s.Latitude, s.Address, s.TotalGameMachines,
			s.Phone, s.IsOperating, s.ApprovalDate, s.Region1, s.Region2)
	}
	return q.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
}

func buildUserInsert(users []models.User, now time.Time) (string, []any, error) {
	q := builder().Insert("users").
		Columns("username", "email", "nickname", "provider", "role", "is_active", "created_at", "updated_at")
	for _, u := range users {
		q = q.Values(u.Username, u.Email, u.Nickname, u.Provider, u.Role, u.IsActive, now, now)
	}
	return q.Suffix("ON CONFLICT (username) DO NOTHING").ToSql()
}

// Store 데이터베이스 연결 풀 (bulk load 전용)
type Store struct {
	Pool *pgxpool.Pool
}

// Connect opens the pool, retrying with exponential backoff until the
// database answers a ping or cfg.ConnectRetry elapses.
func Connect(ctx context.Context, cfg *config.LoaderConfig) (*Store, error) {
	log := logger.GetLogger("store")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectRetry

	var pool *pgxpool.Pool
	connect := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		p, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warnf("database not ready, retrying in %s: %v", wait.Round(time.Millisecond), err)
	}

	if err := backoff.RetryNotify(connect, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	log.Info("Database connection established")
	return &Store{Pool: pool}, nil
}

// Close 데이터베이스 연결 종료
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// InsertShops writes shops in batches inside one transaction and returns
// the number of new rows.
func (s *Store) InsertShops(ctx context.Context, shops []models.Shop, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inserted int64
	for start := 0; start < len(shops); start += batchSize {
		end := min(start+batchSize, len(shops))

		query, args, err := buildShopInsert(shops[start:end])
		if err != nil {
			return 0, err
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert shops [%d:%d]: %w", start, end, err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// SeedUsers inserts users whose username is not taken yet
func (s *Store) SeedUsers(ctx context.Context, users []models.User) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}
	query, args, err := buildUserInsert(users, time.Now())
	if err != nil {
		return 0, err
	}
	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return tag.RowsAffected(), nil
}
