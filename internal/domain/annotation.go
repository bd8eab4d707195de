package domain

import "time"

// Annotation is a note anchored to a highlighted excerpt of a chapter.
// Position is a character offset into the chapter content.
type Annotation struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Highlight string    `json:"highlight"`
	Position  int       `json:"position"`
	IsPrivate bool      `json:"is_private"`
}

// VisibleTo reports whether userID may read the annotation.
// Owners see everything they wrote; everyone else sees public notes only.
func (a Annotation) VisibleTo(userID string) bool {
	return !a.IsPrivate || (userID != "" && a.UserID == userID)
}
