package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Banking-Dialogue/agent/agents/specialist"
	intentx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/intent"
	llmx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/llm"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	toolx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/tool"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/auth"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/credit"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/exchange"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
	configx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/config"
	"github.com/tanpawarit/Chative-Banking-Dialogue/pkg/fxrates"
	openrouterx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/openrouter"
)

// AppConfig holds the settings without a component prefix.
type AppConfig struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	IntentLLM bool   `envconfig:"INTENT_LLM" default:"false"`
}

type app struct {
	cfg          AppConfig
	registry     registry.Registry
	store        statex.Store
	orchestrator *orchestratorx.Orchestrator
}

// buildApp wires every component from the environment. Configuration is read
// once here and passed down explicitly.
func buildApp(ctx context.Context, envPath string) (*app, error) {
	withEnv := configx.WithEnvFile(envPath)

	appCfg, err := configx.New[AppConfig]("", withEnv)
	if err != nil {
		return nil, err
	}
	bankCfg, err := configx.New[orchestratorx.Config]("BANK", withEnv)
	if err != nil {
		return nil, err
	}
	registryCfg, err := configx.New[registry.Config]("REGISTRY", withEnv)
	if err != nil {
		return nil, err
	}
	exchangeCfg, err := configx.New[fxrates.Config]("EXCHANGE", withEnv)
	if err != nil {
		return nil, err
	}
	storeCfg, err := configx.New[statex.StoreConfig]("SESSION", withEnv)
	if err != nil {
		return nil, err
	}
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER", withEnv)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(ctx, *registryCfg)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	a := &app{cfg: *appCfg, registry: reg}

	rates, err := fxrates.NewClient(*exchangeCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create rate client: %w", err)
	}
	services := toolx.Services{
		Registry: reg,
		Gate:     auth.NewGate(reg, bankCfg.MaxAuthAttempts),
		Credit:   credit.NewEngine(reg),
		Exchange: exchange.NewService(rates),
	}

	if a.store, err = statex.NewStore(*storeCfg); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create session store: %w", err)
	}

	agents, err := specialist.NewRegistry(ctx, *llmCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create agents: %w", err)
	}

	var classifier intentx.Classifier = intentx.NewKeywordClassifier()
	if appCfg.IntentLLM {
		intentCfg := llmCfg.IntentConfig()
		llmClassifier, err := intentx.NewLLMClassifier(openrouterx.NewClient(intentCfg), intentCfg.Model, classifier)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create intent classifier: %w", err)
		}
		classifier = llmClassifier
	}

	a.orchestrator, err = orchestratorx.New(agents, services, *bankCfg,
		orchestratorx.WithStore(a.store),
		orchestratorx.WithClassifier(classifier),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info().
		Str("registry_driver", registryCfg.Driver).
		Str("session_backend", storeCfg.Backend).
		Bool("intent_llm", appCfg.IntentLLM).
		Int("max_auth_attempts", a.orchestrator.Config().MaxAuthAttempts).
		Msg("bank agent ready")
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.registry != nil {
		errs = append(errs, a.registry.Close())
	}
	if closer, ok := a.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
