package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("guard_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GuardSession(in, o.cfg.MaxAuthAttempts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node guard_session: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_capability",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchCapability(ctx, in, o.agents, o.services, o.cfg.MaxAuthAttempts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_capability: %w", err)
	}

	if err := graph.AddLambdaNode("apply_effects",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyEffects(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_effects: %w", err)
	}

	if err := graph.AddLambdaNode("transition",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Transition(ctx, in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node transition: %w", err)
	}

	if err := graph.AddLambdaNode("record_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordHistory(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_history: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "guard_session"},
		{"dispatch_capability", "apply_effects"},
		{"apply_effects", "transition"},
		{"transition", "record_history"},
		{"record_history", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	routes := map[nodex.Route]string{
		nodex.RouteDispatch: "dispatch_capability",
		nodex.RouteUnknown:  "record_history",
		nodex.RouteTerminal: "finalize_reply",
	}
	branch := compose.NewGraphBranch(func(ctx context.Context, in *nodex.GraphState) (string, error) {
		next, ok := routes[in.Route]
		if !ok {
			return "", fmt.Errorf("no route for %q", in.Route)
		}
		return next, nil
	}, map[string]bool{
		"dispatch_capability": true,
		"record_history":      true,
		"finalize_reply":      true,
	})
	if err := graph.AddBranch("guard_session", branch); err != nil {
		return nil, fmt.Errorf("add branch guard_session: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.process_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
