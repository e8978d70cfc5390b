package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DB 쿼리 실행 시간
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dollcatch_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table", "status"},
	)

	// DB 쿼리 실행 횟수
	dbQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dollcatch_db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	// DB 에러 횟수
	dbErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dollcatch_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// 느린 쿼리 횟수 (>1초)
	dbSlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dollcatch_db_slow_queries_total",
			Help: "Total number of slow queries (>1 second)",
		},
		[]string{"operation", "table"},
	)

	// Connection Pool 크기
	dbConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dollcatch_db_connection_pool_size",
			Help: "Maximum number of database connections in the pool",
		},
	)

	// Connection Pool 유휴 연결 수
	dbConnectionPoolIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dollcatch_db_connection_pool_idle",
			Help: "Number of idle database connections in the pool",
		},
	)

	// Connection Pool 사용 중 연결 수
	dbConnectionPoolInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dollcatch_db_connection_pool_in_use",
			Help: "Number of database connections currently in use",
		},
	)
)

// MetricsPlugin GORM metrics plugin
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string {
	return "metricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	after := func(op string) func(*gorm.DB) {
		return func(db *gorm.DB) { afterCallback(db, op) }
	}

	errs := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", beforeCallback),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("INSERT")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", beforeCallback),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("SELECT")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", beforeCallback),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", beforeCallback),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("DELETE")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", beforeCallback),
		cb.Row().After("gorm:row").Register("metrics:after_row", after("")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", beforeCallback),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("")),
	}
	return errors.Join(errs...)
}

// beforeCallback 쿼리 실행 전 콜백
func beforeCallback(db *gorm.DB) {
	db.InstanceSet("metrics:start_time", time.Now())
}

// afterCallback 쿼리 실행 후 콜백
func afterCallback(db *gorm.DB, op string) {
	startTime, ok := db.InstanceGet("metrics:start_time")
	if !ok {
		return
	}

	duration := time.Since(startTime.(time.Time)).Seconds()
	if op == "" {
		op = operationFromSQL(db.Statement.SQL.String())
	}
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	status := "success"
	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
	if failed {
		status = "error"
	}

	dbQueryDuration.WithLabelValues(op, table, status).Observe(duration)
	dbQueryTotal.WithLabelValues(op, table, status).Inc()

	if failed {
		dbErrorsTotal.WithLabelValues(op, table, errorType(db.Error)).Inc()
	}

	// 느린 쿼리 기록 (>1초)
	if duration > 1.0 {
		dbSlowQueriesTotal.WithLabelValues(op, table).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "duplicated_key"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "context"
	default:
		return fmt.Sprintf("%T", err)
	}
}

// operationFromSQL row/raw 쿼리의 operation 타입 추출
func operationFromSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	if len(sql) < 6 {
		return "RAW"
	}
	switch strings.ToUpper(sql[:6]) {
	case "SELECT":
		return "SELECT"
	case "INSERT":
		return "INSERT"
	case "UPDATE":
		return "UPDATE"
	case "DELETE":
		return "DELETE"
	}
	return "RAW"
}

// UpdateConnectionPoolMetrics connection pool 메트릭 업데이트
func UpdateConnectionPoolMetrics(db *DB) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	stats := sqlDB.Stats()
	dbConnectionPoolSize.Set(float64(stats.MaxOpenConnections))
	dbConnectionPoolIdle.Set(float64(stats.Idle))
	dbConnectionPoolInUse.Set(float64(stats.InUse))
}

// StartConnectionPoolMetricsCollector connection pool 메트릭 수집 (ctx 종료 시까지 블록)
func StartConnectionPoolMetricsCollector(ctx context.Context, db *DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateConnectionPoolMetrics(db)
		}
	}
}
