package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	intentx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/intent"
	nodex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
	logx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/logger"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrNoStore        = errors.New("session store is not configured")
)

const (
	// FallbackReply answers a turn that failed unexpectedly.
	FallbackReply = "Desculpe, tive um problema ao processar sua mensagem. Pode tentar novamente em instantes?"

	defaultContinuationMessage = "[CONTINUE]"
	defaultMaxAuthAttempts     = 3
)

type Config struct {
	MaxAuthAttempts     int    `split_words:"true" default:"3"`
	ContinuationMessage string `split_words:"true" default:"[CONTINUE]"`
}

// Orchestrator runs one dialogue turn at a time over a caller-owned session.
type Orchestrator struct {
	agents     contractx.Registry
	services   toolx.Services
	classifier intentx.Classifier
	store      statex.Store
	cfg        Config

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Orchestrator)

// WithStore enables HandleMessage.
func WithStore(store statex.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

func WithClassifier(c intentx.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(agents contractx.Registry, services toolx.Services, cfg Config, opts ...Option) (*Orchestrator, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if services.Registry == nil || services.Gate == nil {
		return nil, errors.New("client registry and authentication gate are required")
	}

	if cfg.MaxAuthAttempts <= 0 {
		cfg.MaxAuthAttempts = services.Gate.MaxAttempts()
	}
	if cfg.MaxAuthAttempts <= 0 {
		cfg.MaxAuthAttempts = defaultMaxAuthAttempts
	}
	cfg.ContinuationMessage = strings.TrimSpace(cfg.ContinuationMessage)
	if cfg.ContinuationMessage == "" {
		cfg.ContinuationMessage = defaultContinuationMessage
	}

	o := &Orchestrator{
		agents:     agents,
		services:   services,
		classifier: intentx.NewKeywordClassifier(),
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process runs one customer turn and returns the reply with the next session
// state. The given state is never modified. When the turn fails unexpectedly
// the reply is FallbackReply and the returned state is the given one.
func (o *Orchestrator) Process(ctx context.Context, message string, st *statex.SessionState) (string, *statex.SessionState, error) {
	if st == nil || strings.TrimSpace(st.SessionID) == "" {
		return "", st, ErrInvalidSession
	}
	if strings.TrimSpace(message) == "" {
		return "", st, ErrInvalidMessage
	}

	ctx = logx.WithSession(ctx, st.SessionID)
	logger := log.Ctx(ctx)

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: message, Session: st})
	if err != nil {
		logger.Error().Err(err).Str("capability", string(st.ActiveCapability)).Msg("turn failed, replying with fallback")
		return FallbackReply, st, nil
	}

	if !out.Changed || out.Terminal || endsWithQuestion(out.Reply) {
		return out.Reply, out.Session, nil
	}

	logger.Debug().
		Str("from", string(out.Previous)).
		Str("to", string(out.Session.ActiveCapability)).
		Msg("auto-continuation")

	next, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Text:         o.cfg.ContinuationMessage,
		Session:      out.Session,
		Continuation: true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("continuation turn failed, keeping first reply")
		return out.Reply, out.Session, nil
	}
	return out.Reply + "\n\n" + next.Reply, next.Session, nil
}

// HandleMessage loads the session (creating it when absent), runs Process and
// saves the result.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (string, *statex.SessionState, error) {
	if o.store == nil {
		return "", nil, ErrNoStore
	}

	st, err := o.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		st = statex.NewSessionState(sessionID, o.now())
	case err != nil:
		return "", nil, fmt.Errorf("load session: %w", err)
	}
	if st.Ended {
		return nodex.EndedReply, st, contractx.ErrSessionEnded
	}

	reply, next, err := o.Process(ctx, text, st)
	if err != nil {
		return "", st, err
	}
	if next.Version == st.Version {
		return reply, next, nil
	}
	if err := o.store.Save(ctx, next); err != nil {
		return "", st, fmt.Errorf("save session: %w", err)
	}
	return reply, next, nil
}

func (o *Orchestrator) Config() Config {
	return o.cfg
}

func endsWithQuestion(reply string) bool {
	return strings.HasSuffix(strings.TrimSpace(reply), "?")
}
