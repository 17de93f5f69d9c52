package tool

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/score"
)

type ScoreOutput struct {
	Score           int                  `json:"score"`
	PreviousScore   int                  `json:"previous_score"`
	Delta           int                  `json:"delta"`
	Classification  score.Classification `json:"classification"`
	Recommendations []string             `json:"recommendations"`
}

type PersistScoreOutput struct {
	PreviousScore  int                  `json:"previous_score"`
	NewScore       int                  `json:"new_score"`
	Classification score.Classification `json:"classification"`
}

type scoreArgs struct {
	Income        float64 `json:"income"`
	Employment    string  `json:"employment"`
	FixedExpenses float64 `json:"fixed_expenses"`
	Dependents    int     `json:"dependents"`
	HasDebt       any     `json:"has_debt"`
}

type persistArgs struct {
	Score int `json:"score"`
}

func (g *Gateway) calculateScore(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	cpf, err := g.requireClient()
	if err != nil {
		return nil, nil, err
	}
	var args scoreArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	in, err := args.inputs()
	if err != nil {
		return nil, nil, err
	}

	s, err := score.Calculate(in)
	if err != nil {
		return nil, nil, err
	}
	rec, err := g.svc.Registry.FindByCPF(ctx, cpf)
	if err != nil {
		return nil, nil, err
	}
	g.calculated = &s

	return ScoreOutput{
		Score:           s,
		PreviousScore:   rec.CreditScore,
		Delta:           s - rec.CreditScore,
		Classification:  score.Classify(s),
		Recommendations: score.Recommendations(in, s),
	}, nil, nil
}

func (a scoreArgs) inputs() (score.Inputs, error) {
	employment, err := score.ParseEmployment(a.Employment)
	if err != nil {
		return score.Inputs{}, err
	}
	var debt bool
	switch v := a.HasDebt.(type) {
	case bool:
		debt = v
	case string:
		if debt, err = score.ParseDebt(v); err != nil {
			return score.Inputs{}, err
		}
	case nil:
		return score.Inputs{}, fmt.Errorf("%w: has_debt is required", domain.ErrValidation)
	default:
		return score.Inputs{}, fmt.Errorf("%w: has_debt must be yes or no", domain.ErrValidation)
	}
	return score.Inputs{
		Income:        a.Income,
		Employment:    employment,
		FixedExpenses: a.FixedExpenses,
		Dependents:    a.Dependents,
		HasDebt:       debt,
	}, nil
}

func (g *Gateway) persistScore(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	cpf, err := g.requireClient()
	if err != nil {
		return nil, nil, err
	}
	var args persistArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	if g.calculated == nil || *g.calculated != args.Score {
		return nil, nil, fmt.Errorf("%w: only a score calculated in this turn can be saved", domain.ErrValidation)
	}

	change, err := g.svc.Registry.Apply(ctx, cpf, func(domain.ClientRecord) (registry.Mutation, error) {
		s := args.Score
		return registry.Mutation{Score: &s}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	g.refreshClient(change.After)

	return PersistScoreOutput{
		PreviousScore:  change.Before.CreditScore,
		NewScore:       change.After.CreditScore,
		Classification: score.Classify(change.After.CreditScore),
	}, []contractx.Signal{contractx.SignalScorePersisted}, nil
}
