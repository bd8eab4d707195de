package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/auth"
	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/id"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// SignUpRequest contains new account data.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"notblank,max=120"`
}

// SignInRequest contains user credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is a signed-in user with their access token.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// AuthService is the authentication collaborator: it owns credentials and
// opens and closes sessions in the application state.
type AuthService struct {
	state     *state.State
	remote    *remote.Adapter
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st *state.State, rm *remote.Adapter, tokens *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		state:     st,
		remote:    rm,
		tokens:    tokens,
		validator: v,
		logger:    logger,
	}
}

// SignUp registers a free-tier account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, domainerrors.Validation(err.Error())
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}
	user := domain.NewUser(userID, strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)))
	user.CreatedAt = time.Now().UTC()

	if err := s.remote.InsertCredentials(ctx, remote.Credentials{
		UserID:       userID,
		Email:        user.Email,
		PasswordHash: passwordHash,
	}); err != nil {
		return nil, err
	}
	if err := s.remote.InsertProfile(ctx, user); err != nil {
		// Without a profile the credentials are unusable; undo them so the
		// email can be registered again.
		if cleanupErr := s.remote.DeleteCredentials(context.WithoutCancel(ctx), userID); cleanupErr != nil {
			s.logger.Error("failed to remove orphaned credentials",
				"user_id", userID,
				"error", cleanupErr,
			)
		}
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", userID)
	return s.openSession(user)
}

// SignIn verifies credentials, loads the profile and opens a session.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	creds, err := s.remote.FindCredentials(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	valid, err := auth.VerifyPassword(creds.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user, err := s.remote.LoadUser(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", user.ID)
	return s.openSession(user)
}

func (s *AuthService) openSession(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	s.state.SetUser(user)

	view, ok := s.state.User(user.ID)
	if !ok {
		return nil, domainerrors.Internal("session was not registered")
	}
	return &AuthResponse{
		User:        view,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}

// SignOut ends the session. Tokens issued for it stop working.
func (s *AuthService) SignOut(userID string) {
	if !s.state.IsActive(userID) {
		return
	}
	s.state.ClearUser(userID)
	s.logger.Info("user signed out", "user_id", userID)
}

// VerifyToken returns the user id of a valid token with a live session.
func (s *AuthService) VerifyToken(token string) (string, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return "", domainerrors.Unauthenticated("invalid or expired token")
	}
	if !s.state.IsActive(claims.UserID) {
		return "", domainerrors.Unauthenticated("session has ended")
	}
	return claims.UserID, nil
}
