package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
)

// ApplyEffects folds the turn's tool outcomes into the working session.
func ApplyEffects(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	st, eff := in.Session, in.Effects

	if eff.AuthAttempts != nil {
		st.AuthAttempts = *eff.AuthAttempts
	}
	if eff.Authenticated != nil {
		st.Authenticate(*eff.Authenticated)
	}
	if eff.Has(contractx.SignalLockedOut) {
		st.LockedOut = true
		log.Warn().Str("session_id", st.SessionID).Int("attempts", st.AuthAttempts).Msg("session locked out")
	}
	if eff.Client != nil && st.Authenticated {
		c := *eff.Client
		st.Client = &c
	}
	if eff.Has(contractx.SignalSessionEnded) {
		st.End(eff.EndReason)
		log.Info().Str("session_id", st.SessionID).Str("reason", st.EndReason).Msg("session ended")
	}
	return in, nil
}
