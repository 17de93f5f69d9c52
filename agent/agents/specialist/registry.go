package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	llmx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/llm"
	promptx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/prompt"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

type registryImpl struct {
	intake    contractx.Agent
	credit    contractx.Agent
	interview contractx.Agent
	exchange  contractx.Agent
}

func (r *registryImpl) Intake() contractx.Agent {
	return r.intake
}

func (r *registryImpl) Credit() contractx.Agent {
	return r.credit
}

func (r *registryImpl) Interview() contractx.Agent {
	return r.interview
}

func (r *registryImpl) Exchange() contractx.Agent {
	return r.exchange
}

type modelFactory func(ctx context.Context, capability statex.Capability) (einomodel.ToolCallingChatModel, error)

// NewRegistry builds one OpenRouter-backed agent per capability.
func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newRegistry(ctx, promptx.LoadPromptSet(), func(ctx context.Context, c statex.Capability) (einomodel.ToolCallingChatModel, error) {
		conf := cfg.OpenRouterFor(c)
		return conf.New(ctx)
	})
}

func newRegistry(ctx context.Context, prompts promptx.PromptSet, models modelFactory) (*registryImpl, error) {
	build := func(c statex.Capability) (contractx.Agent, error) {
		m, err := models(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, c, err)
		}
		return newAgent(ctx, c, m, prompts.For(c))
	}

	var (
		r   registryImpl
		err error
	)
	if r.intake, err = build(statex.CapabilityIntake); err != nil {
		return nil, err
	}
	if r.credit, err = build(statex.CapabilityCredit); err != nil {
		return nil, err
	}
	if r.interview, err = build(statex.CapabilityInterview); err != nil {
		return nil, err
	}
	if r.exchange, err = build(statex.CapabilityExchange); err != nil {
		return nil, err
	}
	return &r, nil
}
