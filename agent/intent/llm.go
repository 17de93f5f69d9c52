package intent

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
)

const classifierPrompt = `You route messages for a bank assistant.
Answer with exactly one word:
- credit: the customer talks about credit limits, limit increases, loans or credit score
- exchange: the customer talks about foreign currency, exchange rates or conversions
- none: anything else`

// LLMClassifier asks a chat model for the topic and falls back to keywords
// when the model fails or answers outside the label set.
type LLMClassifier struct {
	client   *openai.Client
	model    string
	fallback Classifier
}

func NewLLMClassifier(client *openai.Client, model string, fallback Classifier) (*LLMClassifier, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("classifier model is required")
	}
	if fallback == nil {
		fallback = NewKeywordClassifier()
	}
	return &LLMClassifier{client: client, model: strings.TrimSpace(model), fallback: fallback}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		log.Warn().Err(err).Msg("intent model failed, using keyword classifier")
		return c.fallback.Classify(ctx, text)
	}
	if len(resp.Choices) == 0 {
		return c.fallback.Classify(ctx, text)
	}

	switch label := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), ".\"'")); label {
	case string(Credit):
		return Credit, nil
	case string(Exchange):
		return Exchange, nil
	case string(None):
		return None, nil
	default:
		log.Warn().Str("label", label).Msg("intent model answered outside label set")
		return c.fallback.Classify(ctx, text)
	}
}
