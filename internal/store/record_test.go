package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_TolerantDecoding(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		"s":      []byte("text"),
		"i64":    int64(3),
		"f":      float64(2),
		"b_int":  int64(1),
		"b_bool": true,
		"b_str":  "false",
		"t":      FormatTime(now),
	}

	assert.Equal(t, "text", rec.String("s"))
	assert.Equal(t, 3, rec.Int("i64"))
	assert.Equal(t, 2, rec.Int("f"))
	assert.InDelta(t, 3.0, rec.Float("i64"), 0.0001)
	assert.True(t, rec.Bool("b_int"))
	assert.True(t, rec.Bool("b_bool"))
	assert.False(t, rec.Bool("b_str"))
	assert.True(t, now.Equal(rec.Time("t")))
	assert.Empty(t, rec.String("missing"))
	assert.True(t, rec.Time("missing").IsZero())
}

func TestFilter_Matches(t *testing.T) {
	rec := Record{"id": "a1", "likes": int64(2), "is_private": int64(0)}

	assert.True(t, Filter{"id": "a1"}.Matches(rec))
	assert.True(t, Filter{"likes": 2.0}.Matches(rec))
	assert.True(t, Filter{"is_private": false}.Matches(rec))
	assert.False(t, Filter{"id": "a1", "likes": 3}.Matches(rec))
	assert.True(t, Filter(nil).Matches(rec))
}

func TestTables_Validation(t *testing.T) {
	_, err := Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownTable))

	tbl, err := Prepare(TableComments, "discussion_id")
	require.NoError(t, err)
	assert.Equal(t, []any{"c1"}, tbl.KeyOf(Record{"id": "c1", "text": "x"}))

	_, err = Prepare(TableComments, "password_hash")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	assert.ErrorIs(t, tbl.CheckRecord(Record{"id": "c1", "bogus": 1}), ErrUnknownColumn)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("select", TableBooks, nil))

	err := Wrap("insert", TableBooks, ErrDuplicateKey)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "insert books")
}
