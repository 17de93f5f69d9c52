package specialist

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	promptx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/prompt"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
)

type fakeToolCallingModel struct {
	mu        sync.Mutex
	responses []*schema.Message
	repeat    *schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	if f.repeat != nil {
		return f.repeat, nil
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.mu.Lock()
	f.tools = tools
	f.mu.Unlock()
	return f, nil
}

type fakeGateway struct {
	mu   sync.Mutex
	reqs []contractx.ToolRequest
}

func (f *fakeGateway) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return contractx.ToolResult{Tool: req.Tool, Result: map[string]any{"credit_limit": 5000}}
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func creditRequest(gw contractx.ToolGateway) contractx.AgentRequest {
	return contractx.AgentRequest{
		Capability: statex.CapabilityCredit,
		Message:    "qual é o meu limite?",
		Session: contractx.SessionView{
			Authenticated: true,
			Client:        &statex.ClientSnapshot{CPF: "12345678900", Name: "João Silva", CreditLimit: 5000, CreditScore: 650},
		},
		History: []statex.Turn{
			{Role: statex.RoleUser, Text: "oi"},
			{Role: statex.RoleAssistant, Text: "Olá João!"},
		},
		Tools: gw,
	}
}

func TestRespondRunsToolLoop(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{toolCall("call-1", toolx.ToolClientGet, "{}")}),
			schema.AssistantMessage("Seu limite atual é de R$ 5.000,00.", nil),
		},
	}
	agent, err := newAgent(context.Background(), statex.CapabilityCredit, fake, "credit prompt")
	if err != nil {
		t.Fatalf("newAgent() error = %v", err)
	}

	gw := &fakeGateway{}
	out, err := agent.Respond(context.Background(), creditRequest(gw))
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if out.Reply != "Seu limite atual é de R$ 5.000,00." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if len(gw.reqs) != 1 || gw.reqs[0].Tool != toolx.ToolClientGet {
		t.Fatalf("unexpected tool requests: %#v", gw.reqs)
	}

	if len(fake.inputs) != 2 {
		t.Fatalf("model calls = %d, want 2", len(fake.inputs))
	}
	first := fake.inputs[0]
	// system prompt, session context, two history turns, customer message
	if len(first) != 5 {
		t.Fatalf("first round messages = %d, want 5", len(first))
	}
	if first[0].Role != schema.System || first[0].Content != "credit prompt" {
		t.Fatalf("unexpected system message: %#v", first[0])
	}
	if !strings.Contains(first[1].Content, "João Silva") {
		t.Fatalf("session context missing customer: %q", first[1].Content)
	}
	if first[4].Role != schema.User || first[4].Content != "qual é o meu limite?" {
		t.Fatalf("unexpected user message: %#v", first[4])
	}

	second := fake.inputs[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call-1" {
		t.Fatalf("expected tool message for call-1, got %#v", last)
	}
	var result contractx.ToolResult
	if err := json.Unmarshal([]byte(last.Content), &result); err != nil {
		t.Fatalf("tool message is not JSON: %v", err)
	}
	if result.Tool != toolx.ToolClientGet {
		t.Fatalf("unexpected tool result: %#v", result)
	}
}

func TestNewAgentBindsCapabilityTools(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}
	if _, err := newAgent(context.Background(), statex.CapabilityExchange, fake, "exchange prompt"); err != nil {
		t.Fatalf("newAgent() error = %v", err)
	}
	want := toolx.InfosFor(statex.CapabilityExchange)
	if len(fake.tools) != len(want) {
		t.Fatalf("bound tools = %d, want %d", len(fake.tools), len(want))
	}
	for _, info := range fake.tools {
		if !strings.HasPrefix(info.Name, "exchange_") {
			t.Fatalf("unexpected tool bound to exchange: %s", info.Name)
		}
	}
}

func TestRespondMalformedArgsReturnToModel(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{toolCall("call-1", toolx.ToolCreditIncrease, "{amount:")}),
			schema.AssistantMessage("Qual valor você deseja?", nil),
		},
	}
	agent, err := newAgent(context.Background(), statex.CapabilityCredit, fake, "credit prompt")
	if err != nil {
		t.Fatalf("newAgent() error = %v", err)
	}

	gw := &fakeGateway{}
	out, err := agent.Respond(context.Background(), creditRequest(gw))
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if out.Reply != "Qual valor você deseja?" {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if len(gw.reqs) != 0 {
		t.Fatal("malformed call must not reach the gateway")
	}
	second := fake.inputs[1]
	if !strings.Contains(second[len(second)-1].Content, "not a JSON object") {
		t.Fatalf("expected argument error in tool message: %q", second[len(second)-1].Content)
	}
}

func TestRespondToolLoopIsBounded(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		repeat: schema.AssistantMessage("", []schema.ToolCall{toolCall("call-x", toolx.ToolClientGet, "{}")}),
	}
	agent, err := newAgent(context.Background(), statex.CapabilityCredit, fake, "credit prompt")
	if err != nil {
		t.Fatalf("newAgent() error = %v", err)
	}

	_, err = agent.Respond(context.Background(), creditRequest(&fakeGateway{}))
	if !errors.Is(err, contractx.ErrToolLoop) {
		t.Fatalf("Respond() error = %v, want ErrToolLoop", err)
	}
	if len(fake.inputs) != maxToolRounds {
		t.Fatalf("model calls = %d, want %d", len(fake.inputs), maxToolRounds)
	}
}

func TestRespondErrors(t *testing.T) {
	t.Parallel()

	t.Run("model failure", func(t *testing.T) {
		t.Parallel()
		agent, err := newAgent(context.Background(), statex.CapabilityCredit, &fakeToolCallingModel{err: errors.New("boom")}, "p")
		if err != nil {
			t.Fatalf("newAgent() error = %v", err)
		}
		if _, err := agent.Respond(context.Background(), creditRequest(&fakeGateway{})); !errors.Is(err, contractx.ErrModelInvoke) {
			t.Fatalf("Respond() error = %v, want ErrModelInvoke", err)
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		t.Parallel()
		fake := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage("  ", nil)}}
		agent, err := newAgent(context.Background(), statex.CapabilityCredit, fake, "p")
		if err != nil {
			t.Fatalf("newAgent() error = %v", err)
		}
		if _, err := agent.Respond(context.Background(), creditRequest(&fakeGateway{})); !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("Respond() error = %v, want ErrSchemaViolation", err)
		}
	})

	t.Run("missing gateway", func(t *testing.T) {
		t.Parallel()
		agent, err := newAgent(context.Background(), statex.CapabilityCredit, &fakeToolCallingModel{}, "p")
		if err != nil {
			t.Fatalf("newAgent() error = %v", err)
		}
		if _, err := agent.Respond(context.Background(), creditRequest(nil)); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("Respond() error = %v, want ErrValidation", err)
		}
	})

	t.Run("wrong capability", func(t *testing.T) {
		t.Parallel()
		agent, err := newAgent(context.Background(), statex.CapabilityExchange, &fakeToolCallingModel{}, "p")
		if err != nil {
			t.Fatalf("newAgent() error = %v", err)
		}
		if _, err := agent.Respond(context.Background(), creditRequest(&fakeGateway{})); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("Respond() error = %v, want ErrValidation", err)
		}
	})
}

func TestNewAgentRequiresPrompt(t *testing.T) {
	t.Parallel()

	if _, err := newAgent(context.Background(), statex.CapabilityIntake, &fakeToolCallingModel{}, " "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("newAgent() error = %v, want ErrPromptMissing", err)
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	got := sessionContext(contractx.AgentRequest{
		IsContinuation: true,
		CameFromCredit: true,
		Session:        contractx.SessionView{AttemptsRemaining: 2},
	})
	for _, want := range []string{
		"authenticated: false",
		"attempts remaining: 2",
		"accepted the interview",
		"handed to you",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("context %q is missing %q", got, want)
		}
	}
}

func TestHistoryWindow(t *testing.T) {
	t.Parallel()

	turns := make([]statex.Turn, 0, historyWindow+6)
	for i := 0; i < historyWindow+6; i++ {
		role := statex.RoleUser
		if i%2 == 1 {
			role = statex.RoleAssistant
		}
		turns = append(turns, statex.Turn{Role: role, Text: "t"})
	}
	if got := historyMessages(turns); len(got) != historyWindow {
		t.Fatalf("history messages = %d, want %d", len(got), historyWindow)
	}
}

func TestNewRegistryBuildsEveryCapability(t *testing.T) {
	t.Parallel()

	var built []statex.Capability
	reg, err := newRegistry(context.Background(), promptx.LoadPromptSet(), func(_ context.Context, c statex.Capability) (einomodel.ToolCallingChatModel, error) {
		built = append(built, c)
		return &fakeToolCallingModel{}, nil
	})
	if err != nil {
		t.Fatalf("newRegistry() error = %v", err)
	}
	if reg.Intake() == nil || reg.Credit() == nil || reg.Interview() == nil || reg.Exchange() == nil {
		t.Fatal("registry has a nil agent")
	}
	if len(built) != 4 {
		t.Fatalf("models built = %d, want 4", len(built))
	}

	_, err = newRegistry(context.Background(), promptx.LoadPromptSet(), func(context.Context, statex.Capability) (einomodel.ToolCallingChatModel, error) {
		return nil, errors.New("no key")
	})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("newRegistry() error = %v, want ErrModelInvoke", err)
	}
}
