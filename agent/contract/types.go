package contract

import (
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

type AgentRequest struct {
	Capability     statex.Capability `json:"capability"`
	Message        string            `json:"message"`
	IsContinuation bool              `json:"is_continuation"`

	CameFromInterview bool `json:"came_from_interview"`
	CameFromCredit    bool `json:"came_from_credit"`

	Session SessionView   `json:"session"`
	History []statex.Turn `json:"history,omitempty"`
	Tools   ToolGateway   `json:"-"`
}

// SessionView is the read-only slice of the session an agent may see.
type SessionView struct {
	Authenticated     bool                   `json:"authenticated"`
	Client            *statex.ClientSnapshot `json:"client,omitempty"`
	AttemptsRemaining int                    `json:"attempts_remaining"`
	InterviewOffered  bool                   `json:"interview_offered"`
}

type AgentResponse struct {
	Reply string `json:"reply"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Signal is an explicit outcome of a tool call that drives the dialogue FSM.
type Signal string

const (
	SignalAuthenticated    Signal = "authenticated"
	SignalAuthFailed       Signal = "auth_failed"
	SignalLockedOut        Signal = "locked_out"
	SignalLimitIncreased   Signal = "limit_increased"
	SignalIncreaseRejected Signal = "increase_rejected"
	SignalScorePersisted   Signal = "score_persisted"
	SignalSessionEnded     Signal = "session_ended"
)
