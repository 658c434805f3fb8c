package token

import (
	"context"
	"fmt"

	"github.com/go-employee-api/internal/domain"
	jwtinfra "github.com/go-employee-api/internal/infrastructure/jwt"
)

// Service binds signed access tokens to the session registry.
type Service interface {
	// Issue signs a token for the employee and makes it the live one.
	Issue(ctx context.Context, employeeID int64) (string, error)
	// Verify checks signature and expiry only.
	Verify(token string) (int64, error)
}

type jwtProvider interface {
	Sign(employeeID int64) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type ServiceDeps struct {
	JWTProvider jwtProvider
	Sessions    domain.SessionRegistry
}

type service struct {
	jwt      jwtProvider
	sessions domain.SessionRegistry
}

func NewService(deps ServiceDeps) Service {
	return &service{jwt: deps.JWTProvider, sessions: deps.Sessions}
}

func (s *service) Issue(ctx context.Context, employeeID int64) (string, error) {
	tok, err := s.jwt.Sign(employeeID)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Activate(ctx, employeeID, tok); err != nil {
		return "", fmt.Errorf("activate session: %w", err)
	}
	return tok, nil
}

func (s *service) Verify(token string) (int64, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return 0, err
	}
	return claims.EmployeeID, nil
}
