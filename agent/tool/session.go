package tool

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
)

type EndOutput struct {
	Ended  bool   `json:"ended"`
	Reason string `json:"reason"`
}

type HelpOutput struct {
	Services []string `json:"services"`
}

type endArgs struct {
	Reason string `json:"reason"`
}

var helpServices = []string{
	"Check your current credit limit and score",
	"Request a credit limit increase",
	"Financial interview to recalculate your credit score",
	"Foreign exchange rates and currency conversion",
}

func (g *Gateway) endSession(_ context.Context, raw map[string]any) (any, []contractx.Signal, error) {
	var args endArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, nil, err
	}
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		reason = "customer request"
	}
	g.effects.EndReason = reason
	return EndOutput{Ended: true, Reason: reason}, []contractx.Signal{contractx.SignalSessionEnded}, nil
}

func (g *Gateway) help(context.Context, map[string]any) (any, []contractx.Signal, error) {
	return HelpOutput{Services: append([]string(nil), helpServices...)}, nil, nil
}
