package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/id"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// NewAnnotation is the input to AnnotationService.Add.
type NewAnnotation struct {
	BookID    string `json:"book_id" validate:"required"`
	ChapterID string `json:"chapter_id" validate:"required"`
	Text      string `json:"text,omitempty" validate:"max=4000"`
	Highlight string `json:"highlight,omitempty" validate:"max=4000"`
	Position  int    `json:"position,omitempty" validate:"gte=0"`
	IsPrivate bool   `json:"is_private,omitempty"`
}

// AnnotationService owns reader annotations. Private annotations are only
// ever visible to their owner.
type AnnotationService struct {
	state     *state.State
	remote    *remote.Adapter
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAnnotationService creates a new annotation service.
func NewAnnotationService(st *state.State, rm *remote.Adapter, events sse.Emitter, v *validation.Validator, logger *slog.Logger) *AnnotationService {
	return &AnnotationService{
		state:     st,
		remote:    rm,
		events:    events,
		validator: v,
		logger:    logger,
	}
}

// Add creates an annotation owned by userID.
func (s *AnnotationService) Add(ctx context.Context, userID string, in NewAnnotation) (domain.Annotation, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Annotation{}, err
	}
	if err := s.validator.Validate(in); err != nil {
		return domain.Annotation{}, err
	}
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.Highlight) == "" {
		return domain.Annotation{}, domainerrors.Validation("annotation needs a note or a highlight")
	}

	book, err := requireBook(s.state, in.BookID)
	if err != nil {
		return domain.Annotation{}, err
	}
	if _, ok := book.Chapter(in.ChapterID); !ok {
		return domain.Annotation{}, domainerrors.NotFoundf("chapter %s not found in book %s", in.ChapterID, in.BookID)
	}

	annotationID, err := id.Generate(id.PrefixAnnotation)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("generate annotation ID: %w", err)
	}

	stored, err := s.remote.InsertAnnotation(ctx, domain.Annotation{
		CreatedAt: time.Now().UTC(),
		ID:        annotationID,
		BookID:    in.BookID,
		ChapterID: in.ChapterID,
		UserID:    userID,
		Text:      in.Text,
		Highlight: in.Highlight,
		Position:  in.Position,
		IsPrivate: in.IsPrivate,
	})
	if err != nil {
		return domain.Annotation{}, err
	}

	if err := s.state.AddAnnotation(stored); err != nil {
		return domain.Annotation{}, err
	}

	s.logger.Info("annotation created",
		"annotation_id", stored.ID,
		"book_id", stored.BookID,
		"user_id", userID,
		"private", stored.IsPrivate,
	)
	s.events.Emit(sse.NewAnnotationCreatedEvent(stored))

	return stored, nil
}

// ByBook returns the caller's own annotations on a book, private and public
// alike, oldest first.
func (s *AnnotationService) ByBook(userID, bookID string) ([]domain.Annotation, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return nil, err
	}
	return s.state.AnnotationsForBook(bookID, func(a domain.Annotation) bool {
		return a.UserID == userID
	}), nil
}

// PublicByBook returns every public annotation on a book across all users.
// Private annotations never appear here, including the caller's own.
func (s *AnnotationService) PublicByBook(bookID string) []domain.Annotation {
	return s.state.AnnotationsForBook(bookID, func(a domain.Annotation) bool {
		return !a.IsPrivate
	})
}

// Delete removes an annotation. Only the owner may delete it.
func (s *AnnotationService) Delete(ctx context.Context, userID, annotationID string) error {
	if _, err := activeUser(s.state, userID); err != nil {
		return err
	}

	ann, ok := s.state.Annotation(annotationID)
	if !ok {
		return domainerrors.NotFoundf("annotation %s not found", annotationID)
	}
	if ann.UserID != userID {
		return domainerrors.Forbidden("you do not own this annotation")
	}

	if err := s.remote.DeleteAnnotation(ctx, annotationID, userID); err != nil {
		return err
	}
	s.state.RemoveAnnotation(annotationID)

	s.logger.Info("annotation deleted",
		"annotation_id", annotationID,
		"user_id", userID,
	)
	s.events.Emit(sse.NewAnnotationDeletedEvent(ann))

	return nil
}
