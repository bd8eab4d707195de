package remote

import (
	"context"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// LoadAnnotations reads every annotation of every user.
func (a *Adapter) LoadAnnotations(ctx context.Context) ([]domain.Annotation, error) {
	rows, err := a.selectRows(ctx, store.TableAnnotations, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Annotation, len(rows))
	for i, r := range rows {
		out[i] = annotationFromRecord(r)
	}
	return out, nil
}

// InsertAnnotation persists an annotation and returns it as stored.
func (a *Adapter) InsertAnnotation(ctx context.Context, ann domain.Annotation) (domain.Annotation, error) {
	rows, err := a.insert(ctx, store.TableAnnotations, store.Record{
		"id":         ann.ID,
		"book_id":    ann.BookID,
		"chapter_id": ann.ChapterID,
		"user_id":    ann.UserID,
		"text":       ann.Text,
		"highlight":  ann.Highlight,
		"position":   ann.Position,
		"is_private": ann.IsPrivate,
		"created_at": store.FormatTime(ann.CreatedAt),
	})
	if err != nil {
		return domain.Annotation{}, err
	}
	return annotationFromRecord(rows[0]), nil
}

// DeleteAnnotation removes the annotation only if userID owns it.
func (a *Adapter) DeleteAnnotation(ctx context.Context, annotationID, userID string) error {
	return a.delete(ctx, store.TableAnnotations, store.Filter{"id": annotationID, "user_id": userID})
}

func annotationFromRecord(r store.Record) domain.Annotation {
	return domain.Annotation{
		CreatedAt: r.Time("created_at"),
		ID:        r.String("id"),
		BookID:    r.String("book_id"),
		ChapterID: r.String("chapter_id"),
		UserID:    r.String("user_id"),
		Text:      r.String("text"),
		Highlight: r.String("highlight"),
		Position:  r.Int("position"),
		IsPrivate: r.Bool("is_private"),
	}
}
