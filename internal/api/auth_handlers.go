package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pageboundapp/pagebound-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signUp",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Create an account",
		Description: "Creates credentials and a free profile, then signs the new reader in",
		Tags:        []string{"Authentication"},
	}, s.handleSignUp)

	huma.Register(s.api, huma.Operation{
		OperationID: "signIn",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signin",
		Summary:     "Sign in",
		Description: "Verifies credentials, restores the reader's state and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "signOut",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signout",
		Summary:     "Sign out",
		Description: "Ends the caller's session; its access token stops working",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSignOut)
}

// === DTOs ===

// SignUpInput wraps the sign-up request.
type SignUpInput struct {
	Body service.SignUpRequest
}

// SignInInput wraps the sign-in request.
type SignInInput struct {
	Body service.SignInRequest
}

// AuthOutput wraps the auth response.
type AuthOutput struct {
	Body *service.AuthResponse
}

// SignOutInput carries the bearer token.
type SignOutInput struct {
	Authorization string `header:"Authorization"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSignUp(ctx context.Context, input *SignUpInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.SignUp(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleSignIn(ctx context.Context, input *SignInInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.SignIn(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleSignOut(ctx context.Context, _ *SignOutInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	s.services.Auth.SignOut(userID)
	return &MessageOutput{Body: MessageResponse{Message: "signed out"}}, nil
}
