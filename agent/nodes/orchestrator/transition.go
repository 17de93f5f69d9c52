package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	intentx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/intent"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

// Transition decides the next capability. Explicit tool signals come first;
// the topic classifier only runs for authenticated sessions.
func Transition(ctx context.Context, in *GraphState, classifier intentx.Classifier) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	st := in.Session
	if st.Terminal() {
		return in, nil
	}

	if st.Authenticated && !in.Continuation {
		topic, err := classifier.Classify(ctx, in.Text)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("intent classification failed")
			topic = intentx.None
		}
		in.Intent = topic
	} else {
		in.Intent = intentx.None
	}

	// A customer message answers a pending offer; only a fresh offer keeps it open.
	offered := (st.InterviewOffered && in.Continuation) ||
		in.Effects.Has(contractx.SignalIncreaseRejected) ||
		intentx.OffersInterview(in.Reply)
	next := st.ActiveCapability

	switch st.ActiveCapability {
	case statex.CapabilityIntake:
		if !st.Authenticated || in.Effects.Has(contractx.SignalAuthenticated) {
			break
		}
		switch in.Intent {
		case intentx.Credit:
			next = statex.CapabilityCredit
		case intentx.Exchange:
			next = statex.CapabilityExchange
		}

	case statex.CapabilityCredit:
		switch {
		case in.Intent == intentx.Exchange:
			next = statex.CapabilityExchange
		// The offer being accepted is the one made in an earlier reply.
		case st.InterviewOffered && !in.Continuation && intentx.Affirms(in.Text):
			next = statex.CapabilityInterview
			st.CameFromCredit = true
		}

	case statex.CapabilityInterview:
		switch {
		case in.Intent == intentx.Exchange:
			next = statex.CapabilityExchange
		case in.Effects.Has(contractx.SignalScorePersisted):
			next = statex.CapabilityCredit
			st.CameFromInterview = true
		}

	case statex.CapabilityExchange:
		if in.Intent == intentx.Credit {
			next = statex.CapabilityCredit
		}
	}

	if next != st.ActiveCapability {
		log.Ctx(ctx).Info().
			Str("from", string(st.ActiveCapability)).
			Str("to", string(next)).
			Msg("capability transition")
	}
	st.SetActive(next)
	st.InterviewOffered = next == statex.CapabilityCredit && next == in.Previous && offered
	return in, nil
}
