package orchestratornode

import (
	"errors"
	"strings"
	"time"

	intentx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/intent"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session state is missing")
)

type Route string

const (
	RouteDispatch Route = "dispatch"
	RouteTerminal Route = "terminal"
	RouteUnknown  Route = "unknown"
)

type GraphInput struct {
	Text         string
	Session      *statex.SessionState
	Continuation bool
}

type GraphOutput struct {
	Reply    string
	Session  *statex.SessionState
	Previous statex.Capability
	Changed  bool
	Terminal bool
}

// GraphState carries one turn through the graph. Session is a private copy of
// the caller's state, so a failing turn leaves the caller's state untouched.
type GraphState struct {
	Text         string
	Now          time.Time
	Continuation bool

	Session  *statex.SessionState
	Previous statex.Capability
	Route    Route

	FromInterview bool
	FromCredit    bool

	Reply   string
	Effects toolx.Effects
	Intent  intentx.Intent
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.Session == nil {
		return nil, ErrInvalidSession
	}
	if strings.TrimSpace(in.Session.SessionID) == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	session := in.Session.Clone()
	return &GraphState{
		Text:         text,
		Now:          nowFn().UTC(),
		Continuation: in.Continuation,
		Session:      session,
		Previous:     session.ActiveCapability,
		Route:        RouteDispatch,
	}, nil
}
