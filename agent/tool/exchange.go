package tool

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/exchange"
)

type RatesOutput struct {
	Rates   []exchange.Quote `json:"rates"`
	Missing []string         `json:"missing,omitempty"`
}

type rateArgs struct {
	Currency string `json:"currency"`
}

type ratesArgs struct {
	Currencies []string `json:"currencies"`
}

type convertArgs struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (g *Gateway) exchangeService() (*exchange.Service, error) {
	if g.svc.Exchange == nil {
		return nil, fmt.Errorf("%w: no rate provider configured", domain.ErrExchangeUnavailable)
	}
	return g.svc.Exchange, nil
}

func (g *Gateway) exchangeRate(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	svc, err := g.exchangeService()
	if err != nil {
		return nil, nil, err
	}
	var args rateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	q, err := svc.Rate(ctx, args.Currency)
	if err != nil {
		return nil, nil, err
	}
	return q, nil, nil
}

func (g *Gateway) exchangeRates(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	svc, err := g.exchangeService()
	if err != nil {
		return nil, nil, err
	}
	var args ratesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	quotes, missing, err := svc.Rates(ctx, args.Currencies)
	if err != nil {
		return nil, nil, err
	}
	return RatesOutput{Rates: quotes, Missing: missing}, nil, nil
}

func (g *Gateway) exchangeConvert(ctx context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	svc, err := g.exchangeService()
	if err != nil {
		return nil, nil, err
	}
	var args convertArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	conv, err := svc.Convert(ctx, args.Amount, args.Currency)
	if err != nil {
		return nil, nil, err
	}
	return conv, nil, nil
}
