package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	openrouterx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/openrouter"
)

// Config is the model configuration, read with the OPENROUTER prefix.
// Per-capability model and temperature fields override the defaults when set;
// a negative temperature means "use Temperature".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	ExcludeReasoning   bool          `envconfig:"EXCLUDE_REASONING" split_words:"true"`

	IntakeModel          string  `envconfig:"INTAKE_MODEL" split_words:"true"`
	CreditModel          string  `envconfig:"CREDIT_MODEL" split_words:"true"`
	InterviewModel       string  `envconfig:"INTERVIEW_MODEL" split_words:"true"`
	ExchangeModel        string  `envconfig:"EXCHANGE_MODEL" split_words:"true"`
	IntakeTemperature    float32 `envconfig:"INTAKE_TEMPERATURE" split_words:"true" default:"-1"`
	CreditTemperature    float32 `envconfig:"CREDIT_TEMPERATURE" split_words:"true" default:"-1"`
	InterviewTemperature float32 `envconfig:"INTERVIEW_TEMPERATURE" split_words:"true" default:"-1"`
	ExchangeTemperature  float32 `envconfig:"EXCHANGE_TEMPERATURE" split_words:"true" default:"-1"`

	// IntentModel drives the LLM intent classifier. Empty means Model.
	IntentModel string `envconfig:"INTENT_MODEL" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(capability statex.Capability) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(m string, t float32) {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}
	switch capability {
	case statex.CapabilityIntake:
		override(c.IntakeModel, c.IntakeTemperature)
	case statex.CapabilityCredit:
		override(c.CreditModel, c.CreditTemperature)
	case statex.CapabilityInterview:
		override(c.InterviewModel, c.InterviewTemperature)
	case statex.CapabilityExchange:
		override(c.ExchangeModel, c.ExchangeTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		ExcludeReasoning:   c.ExcludeReasoning,
	}
}

// IntentConfig is the client configuration for the intent classifier.
func (c Config) IntentConfig() openrouterx.Config {
	conf := c.OpenRouterFor("")
	if v := strings.TrimSpace(c.IntentModel); v != "" {
		conf.Model = v
	}
	conf.Temperature = 0
	return conf
}
