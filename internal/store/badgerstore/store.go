// Package badgerstore implements the persistence contract on a Badger key-value
// database. Every table is a key prefix; rows are JSON documents keyed by the
// table's natural key and ordered by a global insertion sequence.
package badgerstore

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/pageboundapp/pagebound-server/internal/store"
)

const (
	rowPrefix   = "row:"
	sequenceKey = "meta:seq"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

type row struct {
	Seq    uint64       `json:"seq"`
	Record store.Record `json:"rec"`
}

// Open opens (or creates) the database in dir. An empty dir opens an
// in-memory database.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = dir != ""
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}

	if logger != nil {
		logger.Info("badger database opened", "path", dir)
	}
	return &Store{db: db, seq: seq, logger: logger}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}

// Select implements store.Store.
func (s *Store) Select(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := store.Prepare(table, filter.Keys()...)
	if err != nil {
		return nil, store.Wrap("select", table, err)
	}

	var rows []row
	err = s.db.View(func(txn *badger.Txn) error {
		return scan(ctx, txn, t, func(_ []byte, r row) error {
			if filter.Matches(r.Record) {
				rows = append(rows, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, store.Wrap("select", table, err)
	}

	slices.SortFunc(rows, func(a, b row) int { return cmp.Compare(a.Seq, b.Seq) })
	out := make([]store.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out, nil
}

// Insert implements store.Store. The batch is atomic.
func (s *Store) Insert(ctx context.Context, table string, records []store.Record) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
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
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			key := rowKey(t, rec)
			_, err := txn.Get(key)
			if err == nil {
				return fmt.Errorf("%w: %s", store.ErrDuplicateKey, key)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check existing key: %w", err)
			}
			if err := s.put(txn, key, 0, rec); err != nil {
				return err
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

// Upsert implements store.Store. An existing row keeps the columns record
// does not mention.
func (s *Store) Upsert(ctx context.Context, table string, record store.Record, matchKey []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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

	err = s.db.Update(func(txn *badger.Txn) error {
		var (
			found    bool
			foundKey []byte
			existing row
		)
		err := scan(ctx, txn, t, func(key []byte, r row) error {
			if !found && match.Matches(r.Record) {
				found, foundKey, existing = true, key, r
			}
			return nil
		})
		if err != nil {
			return err
		}

		if !found {
			return s.put(txn, rowKey(t, record), 0, record)
		}

		merged := existing.Record.Clone()
		for k, v := range record {
			merged[k] = v
		}
		newKey := rowKey(t, merged)
		if !bytes.Equal(newKey, foundKey) {
			if err := txn.Delete(foundKey); err != nil {
				return err
			}
		}
		return s.put(txn, newKey, existing.Seq, merged)
	})
	return store.Wrap("upsert", table, err)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, table string, match store.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(match) == 0 {
		return store.Wrap("delete", table, store.ErrEmptyMatch)
	}
	t, err := store.Prepare(table, match.Keys()...)
	if err != nil {
		return store.Wrap("delete", table, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		var doomed [][]byte
		err := scan(ctx, txn, t, func(key []byte, r row) error {
			if match.Matches(r.Record) {
				doomed = append(doomed, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete key: %w", err)
			}
		}
		return nil
	})
	return store.Wrap("delete", table, err)
}

// put writes rec under key. A zero seq allocates the next insertion number.
func (s *Store) put(txn *badger.Txn, key []byte, seq uint64, rec store.Record) error {
	if seq == 0 {
		next, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		seq = next + 1
	}
	data, err := json.Marshal(row{Seq: seq, Record: rec})
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	return txn.Set(key, data)
}

// scan visits every row of t. Keys are copied, so fn may retain them.
func scan(ctx context.Context, txn *badger.Txn, t store.Table, fn func(key []byte, r row) error) error {
	prefix := tablePrefix(t)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		var r row
		if err := item.Value(func(val []byte) error {
			d := json.NewDecoder(bytes.NewReader(val))
			return d.Decode(&r)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal row: %w", err)
		}
		if err := fn(item.KeyCopy(nil), r); err != nil {
			return err
		}
	}
	return nil
}

func tablePrefix(t store.Table) []byte {
	return []byte(rowPrefix + t.Name + ":")
}

func rowKey(t store.Table, rec store.Record) []byte {
	parts := make([]string, len(t.Key))
	for i, k := range t.Key {
		parts[i] = rec.String(k)
	}
	return append(tablePrefix(t), strings.Join(parts, "\x00")...)
}
