package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

const (
	LockedOutReply = "Por segurança, seu atendimento foi bloqueado após tentativas de autenticação sem sucesso. Procure uma agência ou a central de atendimento."
	EndedReply     = "Este atendimento foi encerrado. Obrigado por falar com o nosso banco!"
	UnknownReply   = "Desculpe, me perdi na nossa conversa. Vamos recomeçar: como posso ajudar?"
)

// GuardSession short-circuits sessions that accept no more work and repairs
// sessions whose capability is unknown.
func GuardSession(in *GraphState, maxAttempts int) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	st := in.Session

	if !st.LockedOut && maxAttempts > 0 && st.AuthAttempts >= maxAttempts && !st.Authenticated {
		st.LockedOut = true
	}
	switch {
	case st.LockedOut:
		in.Route = RouteTerminal
		in.Reply = LockedOutReply
		return in, nil
	case st.Ended:
		in.Route = RouteTerminal
		in.Reply = EndedReply
		return in, nil
	}

	if !st.ActiveCapability.Known() {
		log.Error().
			Str("session_id", st.SessionID).
			Str("capability", string(st.ActiveCapability)).
			Msg("unknown active capability, resetting to intake")
		st.SetActive(statex.CapabilityIntake)
		in.Route = RouteUnknown
		in.Reply = UnknownReply
		return in, nil
	}

	if !st.Authenticated && st.ActiveCapability != statex.CapabilityIntake {
		log.Warn().
			Str("session_id", st.SessionID).
			Str("capability", string(st.ActiveCapability)).
			Msg("unauthenticated session outside intake, routing to intake")
		st.SetActive(statex.CapabilityIntake)
		in.Previous = statex.CapabilityIntake
	}

	in.Route = RouteDispatch
	return in, nil
}
