package domain

import (
	"slices"
	"time"
)

// Subscription is a user's plan.
type Subscription string

const (
	SubscriptionFree    Subscription = "free"
	SubscriptionPremium Subscription = "premium"
)

// Valid reports whether s is a known plan.
func (s Subscription) Valid() bool {
	return s == SubscriptionFree || s == SubscriptionPremium
}

// User is the signed-in reader. Collections are never nil.
//
// Groups and Annotations are derived views: the engine fills them from the
// group membership sets and the annotation index when it hands out a copy.
type User struct {
	CreatedAt       time.Time         `json:"created_at"`
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Subscription    Subscription      `json:"subscription"`
	ReadingList     []string          `json:"reading_list"`
	Bookmarks       []Bookmark        `json:"bookmarks"`
	ReadingProgress []ReadingProgress `json:"reading_progress"`
	Groups          []string          `json:"groups"`
	Annotations     []Annotation      `json:"annotations"`
}

// Bookmark marks a position inside a chapter.
type Bookmark struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	Note      string    `json:"note,omitempty"`
	Position  int       `json:"position"`
}

// ReadingProgress tracks how far a user is through a book, in percent.
type ReadingProgress struct {
	LastRead time.Time `json:"last_read"`
	BookID   string    `json:"book_id"`
	Progress float64   `json:"progress"`
}

// NewUser creates a free-tier user with empty collections.
func NewUser(id, name, email string) *User {
	return &User{
		CreatedAt:       time.Now(),
		ID:              id,
		Name:            name,
		Email:           email,
		Subscription:    SubscriptionFree,
		ReadingList:     []string{},
		Bookmarks:       []Bookmark{},
		ReadingProgress: []ReadingProgress{},
		Groups:          []string{},
		Annotations:     []Annotation{},
	}
}

// IsPremium is the gate for premium-only features. A nil user is never premium.
func (u *User) IsPremium() bool {
	return u != nil && u.Subscription == SubscriptionPremium
}

// InReadingList reports whether the book is already on the reading list.
func (u *User) InReadingList(bookID string) bool {
	return slices.Contains(u.ReadingList, bookID)
}

// AddToReadingList appends bookID unless present. Returns false for a no-op.
func (u *User) AddToReadingList(bookID string) bool {
	if u.InReadingList(bookID) {
		return false
	}
	u.ReadingList = append(u.ReadingList, bookID)
	return true
}

// SetProgress replaces the progress record for the book, or adds one.
func (u *User) SetProgress(p ReadingProgress) {
	for i := range u.ReadingProgress {
		if u.ReadingProgress[i].BookID == p.BookID {
			u.ReadingProgress[i] = p
			return
		}
	}
	u.ReadingProgress = append(u.ReadingProgress, p)
}

// Progress returns the progress record for the book.
func (u *User) Progress(bookID string) (ReadingProgress, bool) {
	for _, p := range u.ReadingProgress {
		if p.BookID == bookID {
			return p, true
		}
	}
	return ReadingProgress{}, false
}

// RemoveBookmark deletes the bookmark. Returns false if it was not present.
func (u *User) RemoveBookmark(bookmarkID string) bool {
	n := len(u.Bookmarks)
	u.Bookmarks = slices.DeleteFunc(u.Bookmarks, func(b Bookmark) bool { return b.ID == bookmarkID })
	return len(u.Bookmarks) != n
}

// Bookmark returns the bookmark with the given id.
func (u *User) Bookmark(bookmarkID string) (Bookmark, bool) {
	for _, b := range u.Bookmarks {
		if b.ID == bookmarkID {
			return b, true
		}
	}
	return Bookmark{}, false
}

// Clone returns a deep copy with every collection present.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.ReadingList = cloneOrEmpty(u.ReadingList)
	out.Bookmarks = cloneOrEmpty(u.Bookmarks)
	out.ReadingProgress = cloneOrEmpty(u.ReadingProgress)
	out.Groups = cloneOrEmpty(u.Groups)
	out.Annotations = cloneOrEmpty(u.Annotations)
	return &out
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
