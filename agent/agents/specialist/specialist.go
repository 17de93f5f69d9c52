package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
)

const (
	maxToolRounds = 10
	historyWindow = 20
)

// agentImpl answers one capability with a bounded tool-calling loop.
type agentImpl struct {
	capability statex.Capability
	template   einoprompt.ChatTemplate
	runner     compose.Runnable[[]*schema.Message, *schema.Message]
}

var _ contractx.Agent = (*agentImpl)(nil)

func newAgent(
	ctx context.Context,
	capability statex.Capability,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*agentImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: capability=%s", contractx.ErrPromptMissing, capability)
	}

	toolModel, err := chatModel.WithTools(toolx.InfosFor(capability))
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for capability=%s: %v", contractx.ErrModelInvoke, capability, err)
	}
	runner, err := compileModelGraph(ctx, toolModel, "specialist."+string(capability))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &agentImpl{
		capability: capability,
		template:   newChatTemplate(systemPrompt),
		runner:     runner,
	}, nil
}

func (a *agentImpl) Respond(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	if req.Tools == nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}
	if req.Capability != a.capability {
		return contractx.AgentResponse{}, fmt.Errorf("%w: agent=%s got request for capability=%s", contractx.ErrValidation, a.capability, req.Capability)
	}

	messages, err := a.template.Format(ctx, map[string]any{
		"context": sessionContext(req),
		"history": historyMessages(req.History),
		"input":   req.Message,
	})
	if err != nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: render prompt: %v", contractx.ErrValidation, err)
	}

	for round := 0; round < maxToolRounds; round++ {
		msg, err := a.runner.Invoke(ctx, messages)
		if err != nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: capability=%s: %v", contractx.ErrModelInvoke, a.capability, err)
		}
		if msg == nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return contractx.AgentResponse{}, fmt.Errorf("%w: reply is empty", contractx.ErrSchemaViolation)
			}
			return contractx.AgentResponse{Reply: reply}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, a.runTool(ctx, req.Tools, call))
		}
	}

	return contractx.AgentResponse{}, fmt.Errorf("%w: capability=%s after %d rounds", contractx.ErrToolLoop, a.capability, maxToolRounds)
}

// runTool executes one call and returns the tool message for the transcript.
// Malformed calls are answered with an error the model can recover from.
func (a *agentImpl) runTool(ctx context.Context, gw contractx.ToolGateway, call schema.ToolCall) *schema.Message {
	name := strings.TrimSpace(call.Function.Name)

	var result contractx.ToolResult
	args, err := parseToolArgs(call.Function.Arguments)
	if err != nil {
		result = contractx.ToolResult{Tool: name, Error: err.Error()}
	} else {
		result = gw.Execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
	}

	log.Debug().
		Str("capability", string(a.capability)).
		Str("tool", name).
		Bool("failed", result.Error != "").
		Msg("tool call")

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"tool result could not be encoded"}`)
	}
	return schema.ToolMessage(string(payload), call.ID)
}

func parseToolArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}
	return args, nil
}

func historyMessages(history []statex.Turn) []*schema.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	out := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case statex.RoleUser:
			out = append(out, schema.UserMessage(turn.Text))
		case statex.RoleAssistant:
			out = append(out, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return out
}

func sessionContext(req contractx.AgentRequest) string {
	var b strings.Builder
	b.WriteString("Session context:\n")
	fmt.Fprintf(&b, "- authenticated: %t\n", req.Session.Authenticated)
	if c := req.Session.Client; c != nil {
		fmt.Fprintf(&b, "- customer: %s, credit limit BRL %.2f, credit score %d\n", c.Name, c.CreditLimit, c.CreditScore)
	} else {
		fmt.Fprintf(&b, "- authentication attempts remaining: %d\n", req.Session.AttemptsRemaining)
	}
	if req.Session.InterviewOffered {
		b.WriteString("- an interview was offered in an earlier reply\n")
	}
	if req.CameFromCredit {
		b.WriteString("- the customer just accepted the interview offered by the credit service\n")
	}
	if req.CameFromInterview {
		b.WriteString("- the customer just finished the interview and the new score is saved\n")
	}
	if req.IsContinuation {
		b.WriteString("- the conversation was just handed to you; the customer message is a placeholder, continue naturally without waiting for input\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
