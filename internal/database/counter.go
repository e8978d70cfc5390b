package database

import (
	"sync"
	"sync/atomic"

	"gorm.io/gorm"
)

// QueryCounter counts statements issued through gorm. Tests use it to
// assert that a read path stays within a fixed number of round trips.
type QueryCounter struct {
	count atomic.Int64

	mu   sync.Mutex
	sqls []string
}

func (c *QueryCounter) Name() string {
	return "queryCounter"
}

func (c *QueryCounter) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().After("gorm:create").Register("counter:after_create", c.record); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("counter:after_query", c.record); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("counter:after_update", c.record); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("counter:after_delete", c.record); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("counter:after_row", c.record); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("counter:after_raw", c.record)
}

func (c *QueryCounter) record(db *gorm.DB) {
	c.count.Add(1)
	c.mu.Lock()
	c.sqls = append(c.sqls, db.Statement.SQL.String())
	c.mu.Unlock()
}

// Count returns the number of statements since the last Reset
func (c *QueryCounter) Count() int64 {
	return c.count.Load()
}

// Statements returns the SQL text recorded since the last Reset
func (c *QueryCounter) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sqls))
	copy(out, c.sqls)
	return out
}

func (c *QueryCounter) Reset() {
	c.count.Store(0)
	c.mu.Lock()
	c.sqls = nil
	c.mu.Unlock()
}
