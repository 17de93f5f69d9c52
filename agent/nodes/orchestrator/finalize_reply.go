package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: agent returned empty reply", contractx.ErrSchemaViolation)
	}
	if err := in.Session.Validate(); err != nil {
		return GraphOutput{}, fmt.Errorf("state validation failed: %w", err)
	}

	return GraphOutput{
		Reply:    reply,
		Session:  in.Session,
		Previous: in.Previous,
		Changed:  in.Route == RouteDispatch && in.Session.ActiveCapability != in.Previous,
		Terminal: in.Session.Terminal(),
	}, nil
}
