package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/dental-api/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionEnded is returned for a well-formed token whose login is no
	// longer the live session.
	ErrSessionEnded = errors.New("session ended")
)

// SessionStore is the part of the domain store the auth service drives.
type SessionStore interface {
	SignIn(ctx context.Context, email, password string) (model.Session, bool, error)
	Logout(ctx context.Context) error
	Session() *model.Session
}

type Service struct {
	store  SessionStore
	tokens *TokenService
	logger zerolog.Logger
}

func NewService(store SessionStore, tokens *TokenService, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	session, ok, err := s.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if !ok {
		s.logger.Info().Str("email", email).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.Issue(session)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Authenticate resolves a bearer token to the live session. A token from an
// earlier login, or any token after logout, is rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	session := s.store.Session()
	if session == nil || session.ID != claims.UserID || session.TokenID != claims.ID {
		return nil, ErrSessionEnded
	}
	return session, nil
}

// Logout ends the live session if token belongs to it.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.Authenticate(ctx, token); err != nil {
		return err
	}
	return s.store.Logout(ctx)
}
