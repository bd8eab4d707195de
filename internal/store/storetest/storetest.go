// Package storetest holds the behavior every store.Store backend must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/store"
)

// Run exercises s against the persistence contract.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("InsertThenSelectKeepsOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		inserted, err := s.Insert(ctx, store.TableComments, []store.Record{
			{"id": "c2", "discussion_id": "d1", "user_id": "u1", "user_name": "Ada", "text": "second", "likes": 0, "created_at": "2026-01-01T00:00:02Z"},
			{"id": "c1", "discussion_id": "d1", "user_id": "u2", "user_name": "Bo", "text": "first", "likes": 0, "created_at": "2026-01-01T00:00:01Z"},
			{"id": "c3", "discussion_id": "d2", "user_id": "u2", "user_name": "Bo", "text": "other", "likes": 0, "created_at": "2026-01-01T00:00:03Z"},
		})
		require.NoError(t, err)
		assert.Len(t, inserted, 3)

		rows, err := s.Select(ctx, store.TableComments, store.Filter{"discussion_id": "d1"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "c2", rows[0].String("id"))
		assert.Equal(t, "c1", rows[1].String("id"))
		assert.Equal(t, "first", rows[1].String("text"))

		all, err := s.Select(ctx, store.TableComments, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("SelectDecodesTypes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, store.TableAnnotations, []store.Record{{
			"id": "a1", "book_id": "b1", "chapter_id": "ch1", "user_id": "u1",
			"text": "note", "highlight": "excerpt", "position": 42, "is_private": true,
			"created_at": "2026-01-01T00:00:00Z",
		}})
		require.NoError(t, err)

		rows, err := s.Select(ctx, store.TableAnnotations, store.Filter{"book_id": "b1"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 42, rows[0].Int("position"))
		assert.True(t, rows[0].Bool("is_private"))
		assert.Equal(t, 2026, rows[0].Time("created_at").Year())
	})

	t.Run("UpsertUpdatesOrInserts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := []string{"user_id", "book_id"}

		require.NoError(t, s.Upsert(ctx, store.TableReadingProgress,
			store.Record{"user_id": "u1", "book_id": "b1", "progress": 10.0, "last_read": "2026-01-01T00:00:00Z"}, key))
		require.NoError(t, s.Upsert(ctx, store.TableReadingProgress,
			store.Record{"user_id": "u1", "book_id": "b1", "progress": 55.5, "last_read": "2026-01-02T00:00:00Z"}, key))
		require.NoError(t, s.Upsert(ctx, store.TableReadingProgress,
			store.Record{"user_id": "u1", "book_id": "b2", "progress": 5.0, "last_read": "2026-01-02T00:00:00Z"}, key))

		rows, err := s.Select(ctx, store.TableReadingProgress, store.Filter{"user_id": "u1"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.InDelta(t, 55.5, rows[0].Float("progress"), 0.0001)
	})

	t.Run("UpsertPartialRecordKeepsOtherColumns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, store.TableReplies, []store.Record{{
			"id": "r1", "comment_id": "c1", "user_id": "u1", "user_name": "Ada", "text": "hi", "likes": 0, "created_at": "2026-01-01T00:00:00Z",
		}})
		require.NoError(t, err)

		require.NoError(t, s.Upsert(ctx, store.TableReplies, store.Record{"id": "r1", "likes": 2}, []string{"id"}))

		rows, err := s.Select(ctx, store.TableReplies, store.Filter{"id": "r1"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2, rows[0].Int("likes"))
		assert.Equal(t, "hi", rows[0].String("text"))
	})

	t.Run("DeleteByMatch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, store.TableGroupMembers, []store.Record{
			{"group_id": "g1", "user_id": "u1", "joined_at": "2026-01-01T00:00:00Z"},
			{"group_id": "g1", "user_id": "u2", "joined_at": "2026-01-01T00:00:00Z"},
		})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, store.TableGroupMembers, store.Filter{"group_id": "g1", "user_id": "u2"}))
		require.NoError(t, s.Delete(ctx, store.TableGroupMembers, store.Filter{"group_id": "g1", "user_id": "nobody"}))

		rows, err := s.Select(ctx, store.TableGroupMembers, store.Filter{"group_id": "g1"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "u1", rows[0].String("user_id"))
	})

	t.Run("RejectsUnknownTablesAndColumns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Select(ctx, "users; DROP TABLE books", nil)
		assert.ErrorIs(t, err, store.ErrUnknownTable)

		_, err = s.Select(ctx, store.TableBooks, store.Filter{"bogus": 1})
		assert.ErrorIs(t, err, store.ErrUnknownColumn)

		_, err = s.Insert(ctx, store.TableBooks, []store.Record{{"id": "b1", "bogus": 1}})
		assert.ErrorIs(t, err, store.ErrUnknownColumn)

		assert.ErrorIs(t, s.Delete(ctx, store.TableBooks, nil), store.ErrEmptyMatch)
		assert.ErrorIs(t, s.Upsert(ctx, store.TableBooks, store.Record{"id": "b1"}, nil), store.ErrEmptyKey)
	})

	t.Run("InsertDuplicateKeyFails", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		row := store.Record{"user_id": "u1", "book_id": "b1", "added_at": "2026-01-01T00:00:00Z"}

		_, err := s.Insert(ctx, store.TableReadingList, []store.Record{row})
		require.NoError(t, err)

		_, err = s.Insert(ctx, store.TableReadingList, []store.Record{row})
		assert.Error(t, err)
	})

	t.Run("HonorsCanceledContext", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Select(ctx, store.TableBooks, nil)
		assert.Error(t, err)
	})
}
