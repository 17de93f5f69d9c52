package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionState is the persistent per-conversation record owned by the orchestrator.
// - Routing: ActiveCapability + the one-shot handoff flags
// - Identity: Authenticated + Client (a snapshot, the registry stays the source of truth)
// - Lockout: AuthAttempts + LockedOut
type SessionState struct {
	SessionID string `json:"session_id"`
	Version   int64  `json:"version"`

	ActiveCapability Capability `json:"active_capability"`

	Authenticated bool            `json:"authenticated"`
	Client        *ClientSnapshot `json:"client,omitempty"`
	AuthAttempts  int             `json:"auth_attempts"`
	LockedOut     bool            `json:"locked_out"`

	Ended     bool   `json:"ended"`
	EndReason string `json:"end_reason,omitempty"`

	CameFromInterview bool `json:"came_from_interview"`
	CameFromCredit    bool `json:"came_from_credit"`
	InterviewOffered  bool `json:"interview_offered"`

	History     []Turn `json:"history,omitempty"`
	LastMessage string `json:"last_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// baseVersion is the stored version this copy was loaded from or last saved as.
	baseVersion int64
}

type Capability string

const (
	CapabilityIntake    Capability = "intake"
	CapabilityCredit    Capability = "credit"
	CapabilityInterview Capability = "interview"
	CapabilityExchange  Capability = "exchange"
)

func (c Capability) Known() bool {
	switch c {
	case CapabilityIntake, CapabilityCredit, CapabilityInterview, CapabilityExchange:
		return true
	default:
		return false
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ClientSnapshot is the session's copy of the authenticated client. The date
// of birth is never kept in the session.
type ClientSnapshot struct {
	CPF         string  `json:"cpf"`
	Name        string  `json:"name"`
	CreditLimit float64 `json:"credit_limit"`
	CreditScore int     `json:"credit_score"`
}

/* -------------------------- SessionState helpers ------------------------- */

var ErrInvalidState = errors.New("invalid session state")

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:        sessionID,
		ActiveCapability: CapabilityIntake,
		History:          make([]Turn, 0, 8),
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// BaseVersion is the version a Store must still hold for Save to succeed.
func (s *SessionState) BaseVersion() int64 {
	return s.baseVersion
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Terminal reports whether the session accepts no further work.
func (s *SessionState) Terminal() bool {
	return s != nil && (s.Ended || s.LockedOut)
}

func (s *SessionState) AppendTurn(role Role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}

// SetActive switches the capability and drops the stale interview offer.
func (s *SessionState) SetActive(c Capability) {
	if s.ActiveCapability != c {
		s.InterviewOffered = false
	}
	s.ActiveCapability = c
}

func (s *SessionState) Authenticate(client ClientSnapshot) {
	s.Authenticated = true
	s.AuthAttempts = 0
	c := client
	s.Client = &c
}

func (s *SessionState) End(reason string) {
	s.Ended = true
	s.EndReason = strings.TrimSpace(reason)
}

// ConsumeHandoff returns and clears the one-shot handoff flags.
func (s *SessionState) ConsumeHandoff() (fromInterview, fromCredit bool) {
	fromInterview, fromCredit = s.CameFromInterview, s.CameFromCredit
	s.CameFromInterview = false
	s.CameFromCredit = false
	return fromInterview, fromCredit
}

func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Client != nil {
		c := *s.Client
		out.Client = &c
	}
	if s.History != nil {
		out.History = make([]Turn, len(s.History))
		copy(out.History, s.History)
	}
	return &out
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.Version < 0 {
		return fmt.Errorf("%w: negative version %d", ErrInvalidState, s.Version)
	}
	if s.AuthAttempts < 0 {
		return fmt.Errorf("%w: negative auth attempts %d", ErrInvalidState, s.AuthAttempts)
	}
	if s.Authenticated && s.Client == nil {
		return fmt.Errorf("%w: authenticated session without client", ErrInvalidState)
	}
	if s.Authenticated && s.LockedOut {
		return fmt.Errorf("%w: session is both authenticated and locked out", ErrInvalidState)
	}
	for i, turn := range s.History {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return fmt.Errorf("%w: history[%d] has unknown role %q", ErrInvalidState, i, turn.Role)
		}
	}
	return nil
}
