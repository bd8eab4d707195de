package store

import (
	"fmt"
	"slices"
)

// Table names.
const (
	TableBooks            = "books"
	TableSampleChapters   = "sample_chapters"
	TableChapterImages    = "chapter_images"
	TableUserProfiles     = "user_profiles"
	TableCredentials      = "credentials"
	TableDiscussionGroups = "discussion_groups"
	TableGroupMembers     = "group_members"
	TableDiscussions      = "discussions"
	TableComments         = "comments"
	TableReplies          = "replies"
	TableAnnotations      = "annotations"
	TableReadingList      = "reading_list"
	TableReadingProgress  = "reading_progress"
	TableBookmarks        = "bookmarks"
	TablePurchases        = "purchases"
)

// Table describes one table: its columns and the natural key that
// identifies a row.
type Table struct {
	Name    string
	Columns []string
	Key     []string
}

// Tables is the closed set of tables a backend serves.
var Tables = map[string]Table{
	TableBooks: {
		Name:    TableBooks,
		Columns: []string{"id", "title", "author", "cover_url", "price", "rating", "genre", "synopsis", "release_date", "is_free"},
		Key:     []string{"id"},
	},
	TableSampleChapters: {
		Name:    TableSampleChapters,
		Columns: []string{"id", "book_id", "position", "title", "content"},
		Key:     []string{"id"},
	},
	TableChapterImages: {
		Name:    TableChapterImages,
		Columns: []string{"id", "chapter_id", "position", "url", "caption"},
		Key:     []string{"id"},
	},
	TableUserProfiles: {
		Name:    TableUserProfiles,
		Columns: []string{"id", "name", "email", "subscription", "created_at"},
		Key:     []string{"id"},
	},
	TableCredentials: {
		Name:    TableCredentials,
		Columns: []string{"user_id", "email", "password_hash"},
		Key:     []string{"user_id"},
	},
	TableDiscussionGroups: {
		Name:    TableDiscussionGroups,
		Columns: []string{"id", "name", "book_id", "description", "created_by", "created_at"},
		Key:     []string{"id"},
	},
	TableGroupMembers: {
		Name:    TableGroupMembers,
		Columns: []string{"group_id", "user_id", "joined_at"},
		Key:     []string{"group_id", "user_id"},
	},
	TableDiscussions: {
		Name:    TableDiscussions,
		Columns: []string{"id", "group_id", "title", "content", "user_id", "user_name", "created_at"},
		Key:     []string{"id"},
	},
	TableComments: {
		Name:    TableComments,
		Columns: []string{"id", "discussion_id", "user_id", "user_name", "text", "likes", "created_at"},
		Key:     []string{"id"},
	},
	TableReplies: {
		Name:    TableReplies,
		Columns: []string{"id", "comment_id", "user_id", "user_name", "text", "likes", "created_at"},
		Key:     []string{"id"},
	},
	TableAnnotations: {
		Name:    TableAnnotations,
		Columns: []string{"id", "book_id", "chapter_id", "user_id", "text", "highlight", "position", "is_private", "created_at"},
		Key:     []string{"id"},
	},
	TableReadingList: {
		Name:    TableReadingList,
		Columns: []string{"user_id", "book_id", "added_at"},
		Key:     []string{"user_id", "book_id"},
	},
	TableReadingProgress: {
		Name:    TableReadingProgress,
		Columns: []string{"user_id", "book_id", "progress", "last_read"},
		Key:     []string{"user_id", "book_id"},
	},
	TableBookmarks: {
		Name:    TableBookmarks,
		Columns: []string{"id", "user_id", "book_id", "chapter_id", "position", "note", "created_at"},
		Key:     []string{"id"},
	},
	TablePurchases: {
		Name:    TablePurchases,
		Columns: []string{"id", "user_id", "book_id", "amount", "method", "receipt", "created_at"},
		Key:     []string{"id"},
	},
}

// Lookup returns the registered table.
func Lookup(name string) (Table, error) {
	t, ok := Tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// HasColumn reports whether col belongs to the table.
func (t Table) HasColumn(col string) bool {
	return slices.Contains(t.Columns, col)
}

// CheckColumns rejects any name not in the table's column list.
func (t Table) CheckColumns(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, n)
		}
	}
	return nil
}

// CheckRecord validates every key of rec against the column list.
func (t Table) CheckRecord(rec Record) error {
	return t.CheckColumns(rec.Keys()...)
}

// KeyOf returns the natural key values of rec, in Key order.
func (t Table) KeyOf(rec Record) []any {
	out := make([]any, len(t.Key))
	for i, k := range t.Key {
		out[i] = rec[k]
	}
	return out
}

// Prepare resolves the table and validates the columns used by an operation.
func Prepare(table string, columns ...string) (Table, error) {
	t, err := Lookup(table)
	if err != nil {
		return Table{}, err
	}
	if err := t.CheckColumns(columns...); err != nil {
		return Table{}, err
	}
	return t, nil
}
