package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

func (s *Server) registerAnnotationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createAnnotation",
		Method:        http.MethodPost,
		Path:          "/api/v1/annotations",
		Summary:       "Create annotation",
		Description:   "Attaches a note or highlight to a chapter. Private annotations are visible only to their owner.",
		Tags:          []string{"Annotations"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateAnnotation)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAnnotation",
		Method:      http.MethodDelete,
		Path:        "/api/v1/annotations/{id}",
		Summary:     "Delete annotation",
		Description: "Only the owner may delete an annotation",
		Tags:        []string{"Annotations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAnnotation)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyAnnotations",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/annotations",
		Summary:     "List my annotations on a book",
		Tags:        []string{"Annotations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyAnnotations)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicAnnotations",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/annotations/public",
		Summary:     "List public annotations on a book",
		Tags:        []string{"Annotations"},
	}, s.handleListPublicAnnotations)
}

// === DTOs ===

// CreateAnnotationInput wraps a new annotation.
type CreateAnnotationInput struct {
	Authorization string `header:"Authorization"`
	Body          service.NewAnnotation
}

// AnnotationOutput wraps an annotation.
type AnnotationOutput struct {
	Body domain.Annotation
}

// AnnotationIDInput addresses an annotation.
type AnnotationIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Annotation ID"`
}

// BookAnnotationsInput addresses a book's annotations.
type BookAnnotationsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// AnnotationListResponse lists annotations, oldest first.
type AnnotationListResponse struct {
	Annotations []domain.Annotation `json:"annotations"`
	Total       int                 `json:"total"`
}

// AnnotationListOutput wraps an annotation list.
type AnnotationListOutput struct {
	Body AnnotationListResponse
}

// === Handlers ===

func (s *Server) handleCreateAnnotation(ctx context.Context, input *CreateAnnotationInput) (*AnnotationOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.services.Annotation.Add(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &AnnotationOutput{Body: a}, nil
}

func (s *Server) handleDeleteAnnotation(ctx context.Context, input *AnnotationIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Annotation.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "annotation deleted"}}, nil
}

func (s *Server) handleListMyAnnotations(ctx context.Context, input *BookAnnotationsInput) (*AnnotationListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	anns, err := s.services.Annotation.ByBook(userID, input.ID)
	if err != nil {
		return nil, err
	}
	return annotationList(anns), nil
}

func (s *Server) handleListPublicAnnotations(_ context.Context, input *BookAnnotationsInput) (*AnnotationListOutput, error) {
	if _, err := s.services.Catalog.Book(input.ID); err != nil {
		return nil, err
	}
	return annotationList(s.services.Annotation.PublicByBook(input.ID)), nil
}

func annotationList(anns []domain.Annotation) *AnnotationListOutput {
	if anns == nil {
		anns = []domain.Annotation{}
	}
	return &AnnotationListOutput{Body: AnnotationListResponse{Annotations: anns, Total: len(anns)}}
}
