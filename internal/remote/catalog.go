package remote

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// LoadCatalog reads books with their sample chapters and images.
// Books keep insertion order; chapters and images follow their position.
func (a *Adapter) LoadCatalog(ctx context.Context) ([]domain.Book, error) {
	bookRows, err := a.selectRows(ctx, store.TableBooks, nil)
	if err != nil {
		return nil, err
	}
	chapterRows, err := a.selectRows(ctx, store.TableSampleChapters, nil)
	if err != nil {
		return nil, err
	}
	imageRows, err := a.selectRows(ctx, store.TableChapterImages, nil)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(chapterRows, byPosition)
	slices.SortStableFunc(imageRows, byPosition)

	images := make(map[string][]domain.ChapterImage)
	for _, r := range imageRows {
		chID := r.String("chapter_id")
		images[chID] = append(images[chID], domain.ChapterImage{URL: r.String("url"), Caption: r.String("caption")})
	}

	chapters := make(map[string][]domain.Chapter)
	for _, r := range chapterRows {
		ch := domain.Chapter{
			ID:      r.String("id"),
			Title:   r.String("title"),
			Content: r.String("content"),
			Images:  images[r.String("id")],
		}
		if ch.Images == nil {
			ch.Images = []domain.ChapterImage{}
		}
		bookID := r.String("book_id")
		chapters[bookID] = append(chapters[bookID], ch)
	}

	books := make([]domain.Book, 0, len(bookRows))
	for _, r := range bookRows {
		b, err := domain.NewBook(domain.Book{
			ID:          r.String("id"),
			Title:       r.String("title"),
			Author:      r.String("author"),
			CoverURL:    r.String("cover_url"),
			Price:       r.Float("price"),
			Rating:      r.Float("rating"),
			Genre:       r.String("genre"),
			Synopsis:    r.String("synopsis"),
			ReleaseDate: r.String("release_date"),
			IsFree:      r.Bool("is_free"),
			Chapters:    chapters[r.String("id")],
		})
		if err != nil {
			a.logger.Warn("skipping invalid book record", "book_id", r.String("id"), "error", err)
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

// SaveCatalog upserts books, chapters and images, then drops chapters and
// image slots a book no longer has. Running it twice with the same input
// leaves the tables unchanged.
func (a *Adapter) SaveCatalog(ctx context.Context, books []domain.Book) error {
	for _, b := range books {
		if err := a.upsert(ctx, store.TableBooks, bookRecord(b), "id"); err != nil {
			return err
		}
		for i, ch := range b.Chapters {
			rec := store.Record{
				"id":       ch.ID,
				"book_id":  b.ID,
				"position": i,
				"title":    ch.Title,
				"content":  ch.Content,
			}
			if err := a.upsert(ctx, store.TableSampleChapters, rec, "id"); err != nil {
				return err
			}
			for j, img := range ch.Images {
				rec := store.Record{
					"id":         imageID(ch.ID, j),
					"chapter_id": ch.ID,
					"position":   j,
					"url":        img.URL,
					"caption":    img.Caption,
				}
				if err := a.upsert(ctx, store.TableChapterImages, rec, "id"); err != nil {
					return err
				}
			}
			if err := a.pruneImages(ctx, ch.ID, len(ch.Images)); err != nil {
				return err
			}
		}
		if err := a.pruneChapters(ctx, b); err != nil {
			return err
		}
	}
	a.logger.Info("catalog saved", "books", len(books))
	return nil
}

// pruneChapters deletes chapters of b that are missing from b.Chapters,
// together with their images.
func (a *Adapter) pruneChapters(ctx context.Context, b domain.Book) error {
	rows, err := a.selectRows(ctx, store.TableSampleChapters, store.Filter{"book_id": b.ID})
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(b.Chapters))
	for _, ch := range b.Chapters {
		keep[ch.ID] = true
	}
	for _, r := range rows {
		chID := r.String("id")
		if keep[chID] {
			continue
		}
		if err := a.pruneImages(ctx, chID, 0); err != nil {
			return err
		}
		if err := a.delete(ctx, store.TableSampleChapters, store.Filter{"id": chID}); err != nil {
			return err
		}
		a.logger.Debug("chapter removed from catalog", "book_id", b.ID, "chapter_id", chID)
	}
	return nil
}

// pruneImages deletes image slots of a chapter at or beyond count.
func (a *Adapter) pruneImages(ctx context.Context, chapterID string, count int) error {
	rows, err := a.selectRows(ctx, store.TableChapterImages, store.Filter{"chapter_id": chapterID})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Int("position") < count {
			continue
		}
		if err := a.delete(ctx, store.TableChapterImages, store.Filter{"id": r.String("id")}); err != nil {
			return err
		}
	}
	return nil
}

func bookRecord(b domain.Book) store.Record {
	return store.Record{
		"id":           b.ID,
		"title":        b.Title,
		"author":       b.Author,
		"cover_url":    b.CoverURL,
		"price":        b.Price,
		"rating":       b.Rating,
		"genre":        b.Genre,
		"synopsis":     b.Synopsis,
		"release_date": b.ReleaseDate,
		"is_free":      b.IsFree,
	}
}

// Images have no identity of their own; they are keyed by chapter and slot.
func imageID(chapterID string, position int) string {
	return fmt.Sprintf("%s/img/%d", chapterID, position)
}

func byPosition(a, b store.Record) int {
	return cmp.Compare(a.Int("position"), b.Int("position"))
}
