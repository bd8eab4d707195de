package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/store"
	"github.com/pageboundapp/pagebound-server/internal/store/sqlite"
)

var errInjected = errors.New("injected failure")

// flakyStore fails the operations listed in failOn ("insert:group_members").
type flakyStore struct {
	store.Store
	failOn map[string]bool
}

func (f *flakyStore) fail(op, table string) bool { return f.failOn[op+":"+table] }

func (f *flakyStore) Select(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	if f.fail("select", table) {
		return nil, errInjected
	}
	return f.Store.Select(ctx, table, filter)
}

func (f *flakyStore) Insert(ctx context.Context, table string, recs []store.Record) ([]store.Record, error) {
	if f.fail("insert", table) {
		return nil, errInjected
	}
	return f.Store.Insert(ctx, table, recs)
}

func (f *flakyStore) Upsert(ctx context.Context, table string, rec store.Record, key []string) error {
	if f.fail("upsert", table) {
		return errInjected
	}
	return f.Store.Upsert(ctx, table, rec, key)
}

func (f *flakyStore) Delete(ctx context.Context, table string, match store.Filter) error {
	if f.fail("delete", table) {
		return errInjected
	}
	return f.Store.Delete(ctx, table, match)
}

func setupTestAdapter(t *testing.T) (*Adapter, *flakyStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "remote.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	flaky := &flakyStore{Store: s, failOn: map[string]bool{}}
	return New(flaky, logger), flaky
}

func sampleBooks() []domain.Book {
	return []domain.Book{
		{
			ID: "book-dune", Title: "Dune", Author: "Frank Herbert", Genre: "Science",
			Price: 14.99, Rating: 4.5, ReleaseDate: "1965-08-01",
			Chapters: []domain.Chapter{
				{ID: "dune-1", Title: "Arrakis", Content: "A beginning.\nIs a delicate time.", Images: []domain.ChapterImage{
					{URL: "https://img.example/desert.jpg", Caption: "Desert"},
					{URL: "https://img.example/worm.jpg", Caption: "Worm"},
				}},
				{ID: "dune-2", Title: "Caladan", Content: "Rain."},
			},
		},
		{ID: "book-pp", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", IsFree: true, Rating: 4.8},
	}
}

func TestAdapter_CatalogRoundTrip(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.SaveCatalog(ctx, sampleBooks()))
	require.NoError(t, a.SaveCatalog(ctx, sampleBooks()))

	books, err := a.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)

	dune := books[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.False(t, dune.IsFree)
	require.Len(t, dune.Chapters, 2)
	assert.Equal(t, "dune-1", dune.Chapters[0].ID)
	require.Len(t, dune.Chapters[0].Images, 2)
	assert.Equal(t, "Worm", dune.Chapters[0].Images[1].Caption)
	assert.Empty(t, dune.Chapters[1].Images)

	assert.True(t, books[1].IsFree)
	assert.Empty(t, books[1].Chapters)
}

func TestAdapter_SaveCatalogDropsRemovedChaptersAndImages(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.SaveCatalog(ctx, sampleBooks()))

	trimmed := sampleBooks()
	trimmed[0].Chapters = []domain.Chapter{{
		ID: "dune-1", Title: "Arrakis", Content: "A beginning.",
		Images: []domain.ChapterImage{{URL: "https://img.example/desert.jpg", Caption: "Desert"}},
	}}
	require.NoError(t, a.SaveCatalog(ctx, trimmed))

	books, err := a.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Len(t, books[0].Chapters, 1)
	assert.Equal(t, "A beginning.", books[0].Chapters[0].Content)
	require.Len(t, books[0].Chapters[0].Images, 1)
	assert.Equal(t, "Desert", books[0].Chapters[0].Images[0].Caption)

	rows, err := a.store.Select(ctx, store.TableChapterImages, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	rows, err = a.store.Select(ctx, store.TableSampleChapters, store.Filter{"id": "dune-2"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdapter_SaveCatalogPruneFailureIsRemoteFailure(t *testing.T) {
	a, flaky := setupTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.SaveCatalog(ctx, sampleBooks()))

	flaky.failOn["delete:sample_chapters"] = true
	trimmed := sampleBooks()
	trimmed[0].Chapters = trimmed[0].Chapters[:1]
	err := a.SaveCatalog(ctx, trimmed)
	require.ErrorIs(t, err, domainerrors.ErrRemoteFailure)
}

func TestAdapter_GroupTree(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, a.InsertGroup(ctx, domain.DiscussionGroup{
		ID: "grp-1", Name: "Dune Club", BookID: "book-dune", Description: "Spice", CreatedBy: "u1", CreatedAt: now,
	}))
	require.NoError(t, a.InsertMember(ctx, "grp-1", "u2", now))
	require.NoError(t, a.InsertMember(ctx, "grp-1", "u2", now))

	_, err := a.InsertDiscussion(ctx, domain.Discussion{ID: "d1", GroupID: "grp-1", Title: "Thoughts on Paul", Content: "...", UserID: "u2", CreatedAt: now})
	require.NoError(t, err)
	_, err = a.InsertComment(ctx, domain.Comment{ID: "c1", DiscussionID: "d1", UserID: "u1", Text: "Great opening", CreatedAt: now})
	require.NoError(t, err)
	_, err = a.InsertReply(ctx, domain.Reply{ID: "r1", CommentID: "c1", UserID: "u2", Text: "Agreed", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, a.SetCommentLikes(ctx, "c1", 1))
	require.NoError(t, a.SetReplyLikes(ctx, "r1", 3))

	groups, err := a.LoadGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, []string{"u1", "u2"}, g.Members)
	require.Len(t, g.Discussions, 1)
	require.Len(t, g.Discussions[0].Comments, 1, "replies must not become top-level comments")

	c := g.Discussions[0].Comments[0]
	assert.Equal(t, 1, c.Likes)
	require.Len(t, c.Replies, 1)
	assert.Equal(t, 3, c.Replies[0].Likes)

	require.NoError(t, a.DeleteMember(ctx, "grp-1", "u2"))
	groups, err = a.LoadGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, groups[0].Members)
}

func TestAdapter_InsertGroupRollsBackOnMemberFailure(t *testing.T) {
	a, flaky := setupTestAdapter(t)
	ctx := context.Background()
	flaky.failOn["insert:"+store.TableGroupMembers] = true

	err := a.InsertGroup(ctx, domain.DiscussionGroup{ID: "grp-1", Name: "n", BookID: "b", Description: "d", CreatedBy: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRemoteFailure)
	assert.ErrorIs(t, err, errInjected)

	groups, err := a.LoadGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAdapter_Annotations(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()

	saved, err := a.InsertAnnotation(ctx, domain.Annotation{
		ID: "ann-1", BookID: "book-dune", ChapterID: "dune-1", UserID: "u1",
		Text: "note", Highlight: "delicate", Position: 14, IsPrivate: true, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, saved.IsPrivate)
	assert.Equal(t, 14, saved.Position)

	// Wrong owner deletes nothing.
	require.NoError(t, a.DeleteAnnotation(ctx, "ann-1", "u2"))
	all, err := a.LoadAnnotations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, a.DeleteAnnotation(ctx, "ann-1", "u1"))
	all, err = a.LoadAnnotations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAdapter_Accounts(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()
	now := time.Now()

	u := domain.NewUser("user-1", "Ada", "ada@example.com")
	require.NoError(t, a.InsertProfile(ctx, u))
	require.NoError(t, a.SetSubscription(ctx, u.ID, domain.SubscriptionPremium))
	require.NoError(t, a.InsertReadingListEntry(ctx, u.ID, "book-pp", now))
	require.NoError(t, a.InsertReadingListEntry(ctx, u.ID, "book-pp", now))
	require.NoError(t, a.UpsertReadingProgress(ctx, u.ID, domain.ReadingProgress{BookID: "book-pp", Progress: 12, LastRead: now}))
	require.NoError(t, a.UpsertReadingProgress(ctx, u.ID, domain.ReadingProgress{BookID: "book-pp", Progress: 30, LastRead: now}))
	require.NoError(t, a.InsertBookmark(ctx, u.ID, domain.Bookmark{ID: "bkm-1", BookID: "book-pp", ChapterID: "c1", Position: 5, CreatedAt: now}))

	loaded, err := a.LoadUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsPremium())
	assert.Equal(t, []string{"book-pp"}, loaded.ReadingList)
	p, ok := loaded.Progress("book-pp")
	require.True(t, ok)
	assert.InDelta(t, 30, p.Progress, 0.001)
	require.Len(t, loaded.Bookmarks, 1)
	assert.NotNil(t, loaded.Annotations)

	owner, err := a.BookmarkOwner(ctx, "bkm-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)

	require.NoError(t, a.DeleteBookmark(ctx, u.ID, "bkm-1"))
	_, err = a.BookmarkOwner(ctx, "bkm-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	loaded, err = a.LoadUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Bookmarks)

	_, err = a.LoadUser(ctx, "nobody")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAdapter_CredentialsAndPurchases(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.InsertCredentials(ctx, Credentials{UserID: "user-1", Email: " Ada@Example.com ", PasswordHash: "h"}))
	err := a.InsertCredentials(ctx, Credentials{UserID: "user-2", Email: "ada@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	c, err := a.FindCredentials(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)

	_, err = a.FindCredentials(ctx, "bob@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, a.DeleteCredentials(ctx, "user-1"))
	_, err = a.FindCredentials(ctx, "ada@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, a.InsertPurchase(ctx, Purchase{ID: "pur-1", UserID: "user-1", BookID: "book-dune", Amount: 14.99, Method: "card", Receipt: "r", CreatedAt: time.Now()}))
	purchases, err := a.Purchases(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.InDelta(t, 14.99, purchases[0].Amount, 0.0001)
}

func TestAdapter_FailuresAreRemoteFailures(t *testing.T) {
	a, flaky := setupTestAdapter(t)
	flaky.failOn["select:"+store.TableAnnotations] = true

	_, err := a.Hydrate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRemoteFailure)
	assert.Equal(t, domainerrors.CodeRemoteFailure, domainerrors.CodeOf(err))
}

func TestAdapter_Hydrate(t *testing.T) {
	a, _ := setupTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.SaveCatalog(ctx, sampleBooks()))
	require.NoError(t, a.InsertGroup(ctx, domain.DiscussionGroup{ID: "grp-1", Name: "n", BookID: "book-dune", Description: "d", CreatedBy: "u1"}))

	snap, err := a.Hydrate(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Books, 2)
	assert.Len(t, snap.Groups, 1)
	assert.Empty(t, snap.Annotations)
}
