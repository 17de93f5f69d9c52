package tool

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/auth"
)

type ClientView struct {
	Name        string  `json:"name"`
	CreditLimit float64 `json:"credit_limit"`
	CreditScore int     `json:"credit_score"`
}

type AuthenticateOutput struct {
	Success           bool        `json:"success"`
	Client            *ClientView `json:"client,omitempty"`
	AttemptsRemaining int         `json:"attempts_remaining"`
	LockedOut         bool        `json:"locked_out"`
	Reason            string      `json:"reason,omitempty"`
}

type authenticateArgs struct {
	CPF string `json:"cpf"`
	DOB string `json:"dob"`
}

var (
	errAlreadyAuthenticated = errors.New("the customer is already authenticated")
	errOneAttemptPerTurn    = errors.New("only one authentication attempt is allowed per customer message")
)

func (g *Gateway) authenticate(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	if g.binding.Authenticated {
		return nil, nil, errAlreadyAuthenticated
	}
	if g.authAttempted {
		return nil, nil, errOneAttemptPerTurn
	}

	var args authenticateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}

	res, err := g.svc.Gate.Attempt(ctx, g.binding.AuthAttempts, args.CPF, args.DOB)
	if err != nil {
		return nil, nil, err
	}
	g.authAttempted = true
	attempts := res.Attempts
	g.effects.AuthAttempts = &attempts
	g.binding.AuthAttempts = attempts

	switch res.Status {
	case auth.StatusAuthenticated:
		snap := snapshotOf(*res.Client)
		g.binding.Authenticated = true
		g.binding.CPF = snap.CPF
		g.effects.Authenticated = &snap
		g.effects.Client = &snap
		return AuthenticateOutput{
			Success:           true,
			Client:            &ClientView{Name: snap.Name, CreditLimit: snap.CreditLimit, CreditScore: snap.CreditScore},
			AttemptsRemaining: res.Remaining,
		}, []contractx.Signal{contractx.SignalAuthenticated}, nil
	case auth.StatusLockedOut:
		return AuthenticateOutput{LockedOut: true, Reason: res.Err().Error()}, []contractx.Signal{contractx.SignalLockedOut}, nil
	default:
		return AuthenticateOutput{AttemptsRemaining: res.Remaining, Reason: res.Err().Error()}, []contractx.Signal{contractx.SignalAuthFailed}, nil
	}
}
