package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// Credentials are a user's sign-in secret.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// Purchase is a confirmed payment for a book.
type Purchase struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	BookID    string
	Method    string
	Receipt   string
	Amount    float64
}

// LoadUser reads a profile with its reading list, progress and bookmarks.
// Groups and Annotations are left empty for the caller to derive.
func (a *Adapter) LoadUser(ctx context.Context, userID string) (*domain.User, error) {
	profiles, err := a.selectRows(ctx, store.TableUserProfiles, store.Filter{"id": userID})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, domainerrors.NotFoundf("user %s not found", userID)
	}
	p := profiles[0]

	u := domain.NewUser(p.String("id"), p.String("name"), p.String("email"))
	u.CreatedAt = p.Time("created_at")
	if sub := domain.Subscription(p.String("subscription")); sub.Valid() {
		u.Subscription = sub
	}

	listRows, err := a.selectRows(ctx, store.TableReadingList, store.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	for _, r := range listRows {
		u.AddToReadingList(r.String("book_id"))
	}

	progressRows, err := a.selectRows(ctx, store.TableReadingProgress, store.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	for _, r := range progressRows {
		u.SetProgress(domain.ReadingProgress{
			BookID:   r.String("book_id"),
			Progress: r.Float("progress"),
			LastRead: r.Time("last_read"),
		})
	}

	bookmarkRows, err := a.selectRows(ctx, store.TableBookmarks, store.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	for _, r := range bookmarkRows {
		u.Bookmarks = append(u.Bookmarks, domain.Bookmark{
			CreatedAt: r.Time("created_at"),
			ID:        r.String("id"),
			BookID:    r.String("book_id"),
			ChapterID: r.String("chapter_id"),
			Note:      r.String("note"),
			Position:  r.Int("position"),
		})
	}
	return u, nil
}

// InsertProfile creates the user_profiles row for a new account.
func (a *Adapter) InsertProfile(ctx context.Context, u *domain.User) error {
	_, err := a.insert(ctx, store.TableUserProfiles, store.Record{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"subscription": string(u.Subscription),
		"created_at":   store.FormatTime(u.CreatedAt),
	})
	return err
}

// SetSubscription changes a user's plan.
func (a *Adapter) SetSubscription(ctx context.Context, userID string, sub domain.Subscription) error {
	return a.upsert(ctx, store.TableUserProfiles, store.Record{"id": userID, "subscription": string(sub)}, "id")
}

// InsertReadingListEntry adds a book to a reading list. An existing entry
// counts as success.
func (a *Adapter) InsertReadingListEntry(ctx context.Context, userID, bookID string, at time.Time) error {
	_, err := a.insert(ctx, store.TableReadingList, store.Record{
		"user_id":  userID,
		"book_id":  bookID,
		"added_at": store.FormatTime(at),
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil
	}
	return err
}

// UpsertReadingProgress stores progress keyed by user and book.
func (a *Adapter) UpsertReadingProgress(ctx context.Context, userID string, p domain.ReadingProgress) error {
	return a.upsert(ctx, store.TableReadingProgress, store.Record{
		"user_id":   userID,
		"book_id":   p.BookID,
		"progress":  p.Progress,
		"last_read": store.FormatTime(p.LastRead),
	}, "user_id", "book_id")
}

// InsertBookmark persists a bookmark.
func (a *Adapter) InsertBookmark(ctx context.Context, userID string, b domain.Bookmark) error {
	_, err := a.insert(ctx, store.TableBookmarks, store.Record{
		"id":         b.ID,
		"user_id":    userID,
		"book_id":    b.BookID,
		"chapter_id": b.ChapterID,
		"position":   b.Position,
		"note":       b.Note,
		"created_at": store.FormatTime(b.CreatedAt),
	})
	return err
}

// DeleteBookmark removes a bookmark owned by userID.
func (a *Adapter) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	return a.delete(ctx, store.TableBookmarks, store.Filter{"id": bookmarkID, "user_id": userID})
}

// BookmarkOwner returns the id of the user who owns a bookmark.
func (a *Adapter) BookmarkOwner(ctx context.Context, bookmarkID string) (string, error) {
	rows, err := a.selectRows(ctx, store.TableBookmarks, store.Filter{"id": bookmarkID})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domainerrors.NotFoundf("bookmark %s not found", bookmarkID)
	}
	return rows[0].String("user_id"), nil
}

// InsertPurchase records a confirmed payment.
func (a *Adapter) InsertPurchase(ctx context.Context, p Purchase) error {
	_, err := a.insert(ctx, store.TablePurchases, store.Record{
		"id":         p.ID,
		"user_id":    p.UserID,
		"book_id":    p.BookID,
		"amount":     p.Amount,
		"method":     p.Method,
		"receipt":    p.Receipt,
		"created_at": store.FormatTime(p.CreatedAt),
	})
	return err
}

// Purchases lists a user's confirmed payments.
func (a *Adapter) Purchases(ctx context.Context, userID string) ([]Purchase, error) {
	rows, err := a.selectRows(ctx, store.TablePurchases, store.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	out := make([]Purchase, len(rows))
	for i, r := range rows {
		out[i] = Purchase{
			CreatedAt: r.Time("created_at"),
			ID:        r.String("id"),
			UserID:    r.String("user_id"),
			BookID:    r.String("book_id"),
			Method:    r.String("method"),
			Receipt:   r.String("receipt"),
			Amount:    r.Float("amount"),
		}
	}
	return out, nil
}

// InsertCredentials stores a new account's credentials. A taken email is a
// Conflict. Only the sqlite schema enforces email uniqueness, so the other
// backends rely on the lookup here.
func (a *Adapter) InsertCredentials(ctx context.Context, c Credentials) error {
	existing, err := a.selectRows(ctx, store.TableCredentials, store.Filter{"email": normalizeEmail(c.Email)})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return domainerrors.Conflict("email already registered")
	}
	_, err = a.insert(ctx, store.TableCredentials, store.Record{
		"user_id":       c.UserID,
		"email":         normalizeEmail(c.Email),
		"password_hash": c.PasswordHash,
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return domainerrors.Conflict("email already registered")
	}
	return err
}

// DeleteCredentials removes a user's credentials. Sign-up uses it to undo a
// half-created account.
func (a *Adapter) DeleteCredentials(ctx context.Context, userID string) error {
	return a.delete(ctx, store.TableCredentials, store.Filter{"user_id": userID})
}

// FindCredentials looks up credentials by email.
func (a *Adapter) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	rows, err := a.selectRows(ctx, store.TableCredentials, store.Filter{"email": normalizeEmail(email)})
	if err != nil {
		return Credentials{}, err
	}
	if len(rows) == 0 {
		return Credentials{}, domainerrors.NotFound("no account for email")
	}
	return Credentials{
		UserID:       rows[0].String("user_id"),
		Email:        rows[0].String("email"),
		PasswordHash: rows[0].String("password_hash"),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
