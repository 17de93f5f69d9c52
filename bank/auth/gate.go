package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

const DefaultMaxAttempts = 3

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
	StatusLockedOut       Status = "locked_out"
)

// Authenticator is the slice of the registry the gate needs.
type Authenticator interface {
	Authenticate(ctx context.Context, cpf, dob string) (*domain.ClientRecord, error)
}

type Result struct {
	Status    Status
	Attempts  int
	Remaining int
	Client    *domain.ClientRecord
}

// Err returns the error kind of a failed attempt, or nil once authenticated.
func (r Result) Err() error {
	switch r.Status {
	case StatusAuthenticated:
		return nil
	case StatusLockedOut:
		return domain.ErrLockedOut
	default:
		return domain.ErrAuthenticationFailed
	}
}

// Gate enforces the bounded authentication attempt policy. It keeps no state of
// its own; the caller owns the attempt counter.
type Gate struct {
	registry    Authenticator
	maxAttempts int
}

func NewGate(registry Authenticator, maxAttempts int) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Gate{registry: registry, maxAttempts: maxAttempts}
}

func (g *Gate) MaxAttempts() int {
	return g.maxAttempts
}

// Attempt checks one cpf/dob pair given the failed attempts made so far.
// Malformed input returns a validation error and does not consume an attempt.
func (g *Gate) Attempt(ctx context.Context, attempts int, cpf, dob string) (Result, error) {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= g.maxAttempts {
		return Result{Status: StatusLockedOut, Attempts: attempts}, nil
	}

	rec, err := g.registry.Authenticate(ctx, cpf, dob)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return g.pending(attempts), err
		}
		return g.pending(attempts), fmt.Errorf("authenticate: %w", err)
	}

	if rec == nil {
		attempts++
		if attempts >= g.maxAttempts {
			log.Warn().Int("attempts", attempts).Msg("authentication locked out")
			return Result{Status: StatusLockedOut, Attempts: attempts}, nil
		}
		log.Info().Int("attempts", attempts).Msg("authentication failed")
		return g.pending(attempts), nil
	}

	log.Info().Str("cpf", domain.MaskCPF(rec.CPF)).Msg("authentication succeeded")
	return Result{Status: StatusAuthenticated, Attempts: 0, Remaining: g.maxAttempts, Client: rec}, nil
}

func (g *Gate) pending(attempts int) Result {
	return Result{Status: StatusUnauthenticated, Attempts: attempts, Remaining: g.maxAttempts - attempts}
}
