package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/score"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

const (
	ReasonNotAboveCurrent    = "the requested limit must be greater than the current limit"
	ReasonScoreInsufficient  = "the requested limit is above what the current credit score allows"
	ReasonApprovedWithinBand = "the requested limit fits the current credit score"
)

// Decision is the outcome of one limit increase request. It never carries the
// band ceiling.
type Decision struct {
	Outcome        Outcome `json:"outcome"`
	CPF            string  `json:"-"`
	PreviousLimit  float64 `json:"previous_limit"`
	RequestedLimit float64 `json:"requested_limit"`
	NewLimit       float64 `json:"new_limit"`
	Reason         string  `json:"reason"`
	Logged         bool    `json:"-"`
	OfferInterview bool    `json:"offer_interview"`
}

func (d Decision) Approved() bool {
	return d.Outcome == OutcomeApproved
}

type Engine struct {
	registry registry.Registry
	now      func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(reg registry.Registry, opts ...Option) *Engine {
	e := &Engine{registry: reg, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// MaxLimit returns the ceiling and classification for score.
func (e *Engine) MaxLimit(ctx context.Context, s int) (float64, score.Classification, error) {
	amount, err := e.registry.MaxLimitForScore(ctx, s)
	if err != nil {
		return 0, "", err
	}
	return amount, score.Classify(s), nil
}

// RequestIncrease decides a limit increase against the band of the client's
// current score. The log row and the limit update are committed together.
func (e *Engine) RequestIncrease(ctx context.Context, cpf string, requested float64) (Decision, error) {
	if err := domain.ValidateAmount(requested); err != nil {
		return Decision{}, err
	}
	bands, err := e.registry.ScoreBands(ctx)
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	change, err := e.registry.Apply(ctx, cpf, func(cur domain.ClientRecord) (registry.Mutation, error) {
		decision = Decision{
			CPF:            cur.CPF,
			PreviousLimit:  cur.CreditLimit,
			RequestedLimit: requested,
			NewLimit:       cur.CreditLimit,
		}
		if requested <= cur.CreditLimit {
			decision.Outcome = OutcomeRejected
			decision.Reason = ReasonNotAboveCurrent
			return registry.Mutation{}, nil
		}

		ceiling, err := bands.MaxLimitFor(cur.CreditScore)
		if err != nil {
			return registry.Mutation{}, err
		}

		req := &domain.LimitRequest{
			CPF:            cur.CPF,
			Timestamp:      e.now().UTC(),
			LimitBefore:    cur.CreditLimit,
			LimitRequested: requested,
		}
		decision.Logged = true
		if requested <= ceiling {
			req.Status = domain.RequestApproved
			decision.Outcome = OutcomeApproved
			decision.Reason = ReasonApprovedWithinBand
			decision.NewLimit = requested
			limit := requested
			return registry.Mutation{Limit: &limit, Request: req}, nil
		}

		req.Status = domain.RequestRejected
		decision.Outcome = OutcomeRejected
		decision.Reason = ReasonScoreInsufficient
		decision.OfferInterview = true
		return registry.Mutation{Request: req}, nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("request limit increase: %w", err)
	}

	log.Info().
		Str("cpf", domain.MaskCPF(change.After.CPF)).
		Str("outcome", string(decision.Outcome)).
		Float64("previous_limit", decision.PreviousLimit).
		Float64("requested_limit", decision.RequestedLimit).
		Bool("logged", decision.Logged).
		Msg("limit increase decided")

	return decision, nil
}
