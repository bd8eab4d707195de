// Package gormstore implements the persistence contract through GORM, so
// the same engine can sync against PostgreSQL in production.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pageboundapp/pagebound-server/internal/store"
)

// Store is a store.Store backed by a *gorm.DB.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// ConnectionArg describes a PostgreSQL connection.
type ConnectionArg struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
}

// DSN returns the key=value connection string used by the postgres driver.
func (arg ConnectionArg) DSN() string {
	sslMode := arg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		fmt.Sprintf("host=%s", arg.Host),
		fmt.Sprintf("port=%d", arg.Port),
		fmt.Sprintf("user=%s", arg.User),
		fmt.Sprintf("password=%s", arg.Password),
		fmt.Sprintf("dbname=%s", arg.DBName),
		fmt.Sprintf("sslmode=%s", sslMode),
	}
	return strings.Join(parts, " ")
}

// OpenPostgres connects and migrates the schema. An empty dsn is built
// from arg.
func OpenPostgres(dsn string, arg ConnectionArg, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		dsn = arg.DSN()
	}
	s, err := Open(postgres.Open(dsn), logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if arg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(arg.MaxOpenConns)
	}
	if arg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(arg.MaxIdleConns)
	}
	if arg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(arg.ConnMaxLifetime)
	}
	return s, nil
}

// Open opens a store on any GORM dialector and migrates the schema.
func Open(dialector gorm.Dialector, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("gorm database opened", "dialect", dialector.Name())
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates or updates every table of the contract.
func Migrate(db *gorm.DB) error {
	all := make([]any, 0, len(models))
	for _, name := range sortedTables() {
		all = append(all, models[name])
	}
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Select implements store.Store.
func (s *Store) Select(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	t, err := store.Prepare(table, filter.Keys()...)
	if err != nil {
		return nil, store.Wrap("select", table, err)
	}

	q := s.db.WithContext(ctx).Table(t.Name).Select(t.Columns)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}

	var rows []map[string]any
	if err := q.Order("seq").Find(&rows).Error; err != nil {
		return nil, store.Wrap("select", table, err)
	}

	out := make([]store.Record, len(rows))
	for i, r := range rows {
		out[i] = store.Record(r)
	}
	return out, nil
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, table string, records []store.Record) ([]store.Record, error) {
	t, err := store.Lookup(table)
	if err != nil {
		return nil, store.Wrap("insert", table, err)
	}
	for _, rec := range records {
		if err := t.CheckRecord(rec); err != nil {
			return nil, store.Wrap("insert", table, err)
		}
	}

	out := make([]store.Record, 0, len(records))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			if err := tx.Table(t.Name).Create(map[string]any(rec.Clone())).Error; err != nil {
				return translate(err)
			}
			out = append(out, rec.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, store.Wrap("insert", table, err)
	}
	return out, nil
}

// Upsert implements store.Store.
func (s *Store) Upsert(ctx context.Context, table string, record store.Record, matchKey []string) error {
	if len(matchKey) == 0 {
		return store.Wrap("upsert", table, store.ErrEmptyKey)
	}
	t, err := store.Prepare(table, matchKey...)
	if err != nil {
		return store.Wrap("upsert", table, err)
	}
	if err := t.CheckRecord(record); err != nil {
		return store.Wrap("upsert", table, err)
	}

	match := make(map[string]any, len(matchKey))
	for _, k := range matchKey {
		match[k] = record[k]
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table(t.Name).Where(match).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return translate(tx.Table(t.Name).Create(map[string]any(record.Clone())).Error)
		}
		return tx.Table(t.Name).Where(match).Updates(map[string]any(record.Clone())).Error
	})
	return store.Wrap("upsert", table, err)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, table string, match store.Filter) error {
	if len(match) == 0 {
		return store.Wrap("delete", table, store.ErrEmptyMatch)
	}
	t, err := store.Prepare(table, match.Keys()...)
	if err != nil {
		return store.Wrap("delete", table, err)
	}

	model := reflect.New(reflect.TypeOf(models[t.Name]).Elem()).Interface()
	err = s.db.WithContext(ctx).Where(map[string]any(match)).Delete(model).Error
	return store.Wrap("delete", table, err)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
	}
	return err
}

func sortedTables() []string {
	return slices.Sorted(maps.Keys(store.Tables))
}
