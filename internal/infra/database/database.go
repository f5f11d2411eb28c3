// Package database opens the Postgres connection used by the local store backend.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labportal/server/internal/infra/config"
	"github.com/labportal/server/internal/utils/metrics"
)

//go:embed schema.sql
var schema string

const startedAtKey = "labportal:started_at"

// New opens a database connection through lib/pq and hands it to gorm.
func New(cfg *config.DatabaseConfig, m *metrics.Metrics) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if m != nil {
		if err := instrument(db, m); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(schema).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// instrument times every gorm operation into the query duration histogram.
func instrument(db *gorm.DB, m *metrics.Metrics) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				m.RecordDBQuery(op, time.Since(start))
			}
		}
	}

	cb := db.Callback()
	steps := []struct {
		op  string
		err error
	}{
		{"create", cb.Create().Before("gorm:create").Register("metrics:before_create", before)},
		{"create", cb.Create().After("gorm:create").Register("metrics:after_create", after("create"))},
		{"query", cb.Query().Before("gorm:query").Register("metrics:before_query", before)},
		{"query", cb.Query().After("gorm:query").Register("metrics:after_query", after("query"))},
		{"update", cb.Update().Before("gorm:update").Register("metrics:before_update", before)},
		{"update", cb.Update().After("gorm:update").Register("metrics:after_update", after("update"))},
		{"delete", cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before)},
		{"delete", cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))},
		{"raw", cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before)},
		{"raw", cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))},
	}
	for _, s := range steps {
		if s.err != nil {
			return fmt.Errorf("register %s callback: %w", s.op, s.err)
		}
	}
	return nil
}
