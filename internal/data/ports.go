package data

import (
	"context"
	"errors"

	"github.com/Atanda1/dca-experiment/internal/core"
)

// Ports for the remote data service. The hosted service owns all durable
// state; row-level authorization on the investments relation is enforced
// on its side, not here.
type (
	// AuthService is the authentication surface of the remote service.
	AuthService interface {
		SignIn(ctx context.Context, email, password string) (core.Session, error)
		RefreshSession(ctx context.Context, refreshToken string) (core.Session, error)
		SignOut(ctx context.Context, accessToken string) error
	}

	// InvestmentStore is the investments relation. Every call carries the
	// caller's session; ListInvestments returns rows ordered by investment
	// date descending.
	InvestmentStore interface {
		ListInvestments(ctx context.Context, sess core.Session, userID string) ([]core.Investment, error)
		InsertInvestment(ctx context.Context, sess core.Session, n core.NewInvestment) (core.Investment, error)
		DeleteInvestment(ctx context.Context, sess core.Session, id, userID string) error
	}

	// Service is the full remote data service contract.
	Service interface {
		AuthService
		InvestmentStore
	}
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired or invalid")
	ErrNotFound           = errors.New("row not found")
)
