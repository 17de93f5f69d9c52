package tool

import (
	"context"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/credit"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/score"
)

type MaxLimitOutput struct {
	Score          int                  `json:"score"`
	MaxLimit       float64              `json:"max_limit"`
	Classification score.Classification `json:"classification"`
}

type IncreaseOutput struct {
	Approved       bool    `json:"approved"`
	PreviousLimit  float64 `json:"previous_limit"`
	RequestedLimit float64 `json:"requested_limit"`
	NewLimit       float64 `json:"new_limit"`
	Reason         string  `json:"reason"`
	CanInterview   bool    `json:"can_interview"`
}

type maxLimitArgs struct {
	Score *int `json:"score"`
}

type increaseArgs struct {
	Amount float64 `json:"amount"`
}

func (g *Gateway) clientGet(ctx context.Context, _ map[string]any) (any, []contractx.Signal, error) {
	cpf, err := g.requireClient()
	if err != nil {
		return nil, nil, err
	}
	rec, err := g.svc.Registry.FindByCPF(ctx, cpf)
	if err != nil {
		return nil, nil, err
	}
	g.refreshClient(rec)
	return ClientView{Name: rec.Name, CreditLimit: rec.CreditLimit, CreditScore: rec.CreditScore}, nil, nil
}

func (g *Gateway) maxLimit(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	cpf, err := g.requireClient()
	if err != nil {
		return nil, nil, err
	}
	var args maxLimitArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}

	s := 0
	if args.Score != nil {
		s = *args.Score
	} else {
		rec, err := g.svc.Registry.FindByCPF(ctx, cpf)
		if err != nil {
			return nil, nil, err
		}
		g.refreshClient(rec)
		s = rec.CreditScore
	}

	amount, class, err := g.svc.Credit.MaxLimit(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	return MaxLimitOutput{Score: s, MaxLimit: amount, Classification: class}, nil, nil
}

func (g *Gateway) requestIncrease(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	cpf, err := g.requireClient()
	if err != nil {
		return nil, nil, err
	}
	var args increaseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}

	d, err := g.svc.Credit.RequestIncrease(ctx, cpf, args.Amount)
	if err != nil {
		return nil, nil, err
	}
	if g.effects.Client != nil {
		g.effects.Client.CreditLimit = d.NewLimit
	} else if rec, err := g.svc.Registry.FindByCPF(ctx, cpf); err == nil {
		g.refreshClient(rec)
	}

	out := IncreaseOutput{
		Approved:       d.Approved(),
		PreviousLimit:  d.PreviousLimit,
		RequestedLimit: d.RequestedLimit,
		NewLimit:       d.NewLimit,
		Reason:         d.Reason,
		CanInterview:   d.OfferInterview,
	}
	switch {
	case d.Outcome == credit.OutcomeApproved:
		return out, []contractx.Signal{contractx.SignalLimitIncreased}, nil
	case d.OfferInterview:
		return out, []contractx.Signal{contractx.SignalIncreaseRejected}, nil
	default:
		return out, nil, nil
	}
}
