package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/auth"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/credit"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/exchange"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
)

// Services are the bank components the tools execute against.
type Services struct {
	Registry registry.Registry
	Gate     *auth.Gate
	Credit   *credit.Engine
	Exchange *exchange.Service
}

// Binding is what a gateway knows about the session it serves.
type Binding struct {
	Capability    statex.Capability
	Authenticated bool
	CPF           string
	AuthAttempts  int
}

func BindingFor(st *statex.SessionState) Binding {
	b := Binding{
		Capability:    st.ActiveCapability,
		Authenticated: st.Authenticated,
		AuthAttempts:  st.AuthAttempts,
	}
	if st.Client != nil {
		b.CPF = st.Client.CPF
	}
	return b
}

// Operation records one executed tool call.
type Operation struct {
	Tool    string             `json:"tool"`
	Error   string             `json:"error,omitempty"`
	Signals []contractx.Signal `json:"signals,omitempty"`
	At      time.Time          `json:"at"`
}

// Effects is everything a turn's tool calls changed. The orchestrator folds it
// into the session after the agent returns.
type Effects struct {
	Operations    []Operation
	Signals       []contractx.Signal
	Authenticated *statex.ClientSnapshot
	AuthAttempts  *int
	Client        *statex.ClientSnapshot
	EndReason     string
}

func (e Effects) Has(sig contractx.Signal) bool {
	for _, s := range e.Signals {
		if s == sig {
			return true
		}
	}
	return false
}

// Gateway is a per-turn, session-bound ToolGateway.
type Gateway struct {
	svc     Services
	now     func() time.Time
	mu      sync.Mutex
	binding Binding
	effects Effects

	authAttempted bool
	calculated    *int
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(svc Services, binding Binding, now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	return &Gateway{svc: svc, binding: binding, now: now}
}

func (g *Gateway) Effects() Effects {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.effects
	out.Operations = append([]Operation(nil), g.effects.Operations...)
	out.Signals = append([]contractx.Signal(nil), g.effects.Signals...)
	return out
}

type handler func(g *Gateway, ctx context.Context, args map[string]any) (any, []contractx.Signal, error)

var handlers = map[string]handler{
	ToolAuthenticate:     (*Gateway).authenticate,
	ToolClientGet:        (*Gateway).clientGet,
	ToolCreditMaxLimit:   (*Gateway).maxLimit,
	ToolCreditIncrease:   (*Gateway).requestIncrease,
	ToolInterviewScore:   (*Gateway).calculateScore,
	ToolInterviewPersist: (*Gateway).persistScore,
	ToolExchangeRate:     (*Gateway).exchangeRate,
	ToolExchangeRates:    (*Gateway).exchangeRates,
	ToolExchangeConvert:  (*Gateway).exchangeConvert,
	ToolSessionEnd:       (*Gateway).endSession,
	ToolSessionHelp:      (*Gateway).help,
}

// Execute runs one tool call. Calls are serialized per gateway.
func (g *Gateway) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := contractx.ToolResult{Tool: req.Tool}
	if !allowed(g.binding.Capability, req.Tool) {
		result.Error = fmt.Sprintf("tool=%s is unavailable for capability=%s", req.Tool, g.binding.Capability)
		g.record(req.Tool, result.Error, nil)
		return result
	}

	h := handlers[req.Tool]
	out, signals, err := h(g, ctx, req.Args)
	if err != nil {
		result.Error = publicError(err)
		log.Warn().Err(err).Str("tool", req.Tool).Str("capability", string(g.binding.Capability)).Msg("tool call failed")
	} else {
		result.Result = out
	}
	g.effects.Signals = append(g.effects.Signals, signals...)
	g.record(req.Tool, result.Error, signals)
	return result
}

func (g *Gateway) record(tool, errMsg string, signals []contractx.Signal) {
	g.effects.Operations = append(g.effects.Operations, Operation{
		Tool:    tool,
		Error:   errMsg,
		Signals: signals,
		At:      g.now().UTC(),
	})
	log.Debug().Str("tool", tool).Str("error", errMsg).Interface("signals", signals).Msg("tool call recorded")
}

var errAuthRequired = errors.New("the customer must be authenticated first")

func (g *Gateway) requireClient() (string, error) {
	if !g.binding.Authenticated || g.binding.CPF == "" {
		return "", errAuthRequired
	}
	return g.binding.CPF, nil
}

func (g *Gateway) refreshClient(rec domain.ClientRecord) {
	snap := snapshotOf(rec)
	g.effects.Client = &snap
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// publicError maps internal failures onto messages safe to show the model.
func publicError(err error) string {
	switch {
	case errors.Is(err, errAuthRequired), errors.Is(err, errAlreadyAuthenticated), errors.Is(err, errOneAttemptPerTurn):
		return err.Error()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrScoreCalculation):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "client not found"
	case errors.Is(err, domain.ErrExchangeUnavailable):
		return "exchange rates are unavailable right now, please try again later"
	case errors.Is(err, domain.ErrDataAccess):
		return "the bank systems are unavailable right now, please try again later"
	default:
		return "the operation could not be completed"
	}
}

func snapshotOf(rec domain.ClientRecord) statex.ClientSnapshot {
	return statex.ClientSnapshot{
		CPF:         rec.CPF,
		Name:        rec.Name,
		CreditLimit: rec.CreditLimit,
		CreditScore: rec.CreditScore,
	}
}
