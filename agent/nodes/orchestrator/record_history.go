package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

// RecordHistory appends the turn and bumps the version. Continuation turns
// only record the assistant reply.
func RecordHistory(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	st := in.Session

	if !in.Continuation {
		st.AppendTurn(statex.RoleUser, in.Text)
		st.LastMessage = in.Text
	}
	if in.Reply != "" {
		st.AppendTurn(statex.RoleAssistant, in.Reply)
	}
	st.Version++
	st.Touch(in.Now)
	return in, nil
}
