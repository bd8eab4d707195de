package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pageboundapp/pagebound-server/internal/store"
)

// Table and column names only ever come from store.Tables, so they are
// safe to splice into statements. Values are always bound.

// Select implements store.Store.
func (s *Store) Select(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	t, err := store.Prepare(table, filter.Keys()...)
	if err != nil {
		return nil, store.Wrap("select", table, err)
	}

	where, args := whereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY rowid", columnList(t.Columns), quote(t.Name), where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("select", table, err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		values := make([]any, len(t.Columns))
		ptrs := make([]any, len(t.Columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, store.Wrap("select", table, err)
		}
		rec := make(store.Record, len(t.Columns))
		for i, col := range t.Columns {
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, store.Wrap("select", table, rows.Err())
}

// Insert implements store.Store. All rows go in one transaction.
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.Wrap("insert", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	out := make([]store.Record, 0, len(records))
	for _, rec := range records {
		if err := insertRow(ctx, tx, t, rec); err != nil {
			return nil, store.Wrap("insert", table, err)
		}
		out = append(out, rec.Clone())
	}

	if err := tx.Commit(); err != nil {
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

	match := make(store.Filter, len(matchKey))
	for _, k := range matchKey {
		match[k] = record[k]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Wrap("upsert", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	where, args := whereClause(match)
	var rowID int64
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT rowid FROM %s%s LIMIT 1", quote(t.Name), where), args...).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = insertRow(ctx, tx, t, record)
	case err == nil:
		err = updateRow(ctx, tx, t, record, rowID)
	}
	if err != nil {
		return store.Wrap("upsert", table, err)
	}

	return store.Wrap("upsert", table, tx.Commit())
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

	where, args := whereClause(match)
	_, err = s.db.ExecContext(ctx, "DELETE FROM "+quote(t.Name)+where, args...)
	return store.Wrap("delete", table, err)
}

func insertRow(ctx context.Context, tx *sql.Tx, t store.Table, rec store.Record) error {
	cols := rec.Keys()
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = rec[c]
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.Name), columnList(cols), placeholders)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

func updateRow(ctx context.Context, tx *sql.Tx, t store.Table, rec store.Record, rowID int64) error {
	cols := rec.Keys()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = quote(c) + " = ?"
		args = append(args, rec[c])
	}
	args = append(args, rowID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE rowid = ?", quote(t.Name), strings.Join(sets, ", "))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func whereClause(f store.Filter) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	keys := f.Keys()
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = quote(k) + " = ?"
		args[i] = f[k]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func quote(ident string) string {
	return `"` + ident + `"`
}
