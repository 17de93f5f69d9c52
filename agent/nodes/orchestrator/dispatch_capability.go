package orchestratornode

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
)

// DispatchCapability runs the active capability's agent with a gateway bound
// to this session. Handoff flags are consumed here so they reach exactly one turn.
func DispatchCapability(
	ctx context.Context,
	in *GraphState,
	agents contractx.Registry,
	services toolx.Services,
	maxAttempts int,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	st := in.Session

	agent, err := pickAgent(st.ActiveCapability, agents)
	if err != nil {
		return nil, err
	}

	in.FromInterview, in.FromCredit = st.ConsumeHandoff()
	gateway := toolx.NewGateway(services, toolx.BindingFor(st), func() time.Time { return in.Now })

	remaining := maxAttempts - st.AuthAttempts
	if remaining < 0 {
		remaining = 0
	}
	req := contractx.AgentRequest{
		Capability:        st.ActiveCapability,
		Message:           in.Text,
		IsContinuation:    in.Continuation,
		CameFromInterview: in.FromInterview,
		CameFromCredit:    in.FromCredit,
		Session: contractx.SessionView{
			Authenticated:     st.Authenticated,
			Client:            st.Client,
			AttemptsRemaining: remaining,
			InterviewOffered:  st.InterviewOffered,
		},
		History: st.History,
		Tools:   gateway,
	}

	resp, err := agent.Respond(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("capability=%s respond: %w", st.ActiveCapability, err)
	}

	in.Reply = strings.TrimSpace(resp.Reply)
	in.Effects = gateway.Effects()
	return in, nil
}

func pickAgent(c statex.Capability, agents contractx.Registry) (contractx.Agent, error) {
	var agent contractx.Agent
	switch c {
	case statex.CapabilityIntake:
		agent = agents.Intake()
	case statex.CapabilityCredit:
		agent = agents.Credit()
	case statex.CapabilityInterview:
		agent = agents.Interview()
	case statex.CapabilityExchange:
		agent = agents.Exchange()
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: no agent for capability=%q", contractx.ErrValidation, c)
	}
	return agent, nil
}
