package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

// Registry is the persistence contract for clients, score bands and the limit request log.
type Registry interface {
	FindByCPF(ctx context.Context, cpf string) (domain.ClientRecord, error)
	// Authenticate returns nil without error when the pair does not match a client.
	Authenticate(ctx context.Context, cpf, dob string) (*domain.ClientRecord, error)
	UpdateScore(ctx context.Context, cpf string, score int) error
	UpdateLimit(ctx context.Context, cpf string, limit float64) error
	AppendLimitRequest(ctx context.Context, req domain.LimitRequest) error
	MaxLimitForScore(ctx context.Context, score int) (float64, error)
	ScoreBands(ctx context.Context) (domain.BandTable, error)
	LimitRequests(ctx context.Context, cpf string) ([]domain.LimitRequest, error)
	// Apply runs fn against the current record and commits its Mutation atomically.
	Apply(ctx context.Context, cpf string, fn MutateFunc) (Change, error)
	Close() error
}

type MutateFunc func(current domain.ClientRecord) (Mutation, error)

// Mutation is the set of writes committed together by Apply.
type Mutation struct {
	Limit   *float64
	Score   *int
	Request *domain.LimitRequest
}

func (m Mutation) Empty() bool {
	return m.Limit == nil && m.Score == nil && m.Request == nil
}

func (m Mutation) validate(cpf string) error {
	if m.Limit != nil {
		if err := domain.ValidateLimit(*m.Limit); err != nil {
			return err
		}
	}
	if m.Score != nil {
		if err := domain.ValidateScore(*m.Score); err != nil {
			return err
		}
	}
	if m.Request != nil {
		if m.Request.CPF != cpf {
			return fmt.Errorf("%w: limit request cpf does not match mutated client", domain.ErrValidation)
		}
		if err := m.Request.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m Mutation) applyTo(rec domain.ClientRecord) domain.ClientRecord {
	if m.Limit != nil {
		rec.CreditLimit = *m.Limit
	}
	if m.Score != nil {
		rec.CreditScore = *m.Score
	}
	return rec
}

// Change reports the record before and after an Apply.
type Change struct {
	Before  domain.ClientRecord
	After   domain.ClientRecord
	Request *domain.LimitRequest
}

type Config struct {
	Driver     string        `envconfig:"DRIVER" default:"sqlite"`
	DSN        string        `envconfig:"DSN" default:"file:bank.db?_pragma=busy_timeout(5000)"`
	SeedFile   string        `split_words:"true"`
	MaxRetries int           `split_words:"true" default:"5"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds the registry selected by cfg.Driver and loads the seed data.
func Open(ctx context.Context, cfg Config) (Registry, error) {
	seed, err := cfg.Seed()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return NewMemoryRegistry(seed)
	case DriverSQLite, DriverPostgres, "":
		reg, err := OpenSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.Migrate(ctx); err != nil {
			_ = reg.Close()
			return nil, err
		}
		if err := reg.Seed(ctx, seed); err != nil {
			_ = reg.Close()
			return nil, err
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unsupported registry driver %q", cfg.Driver)
	}
}

// Seed returns the configured seed file, or the built-in seed when none is set.
func (c Config) Seed() (Seed, error) {
	if strings.TrimSpace(c.SeedFile) == "" {
		return DefaultSeed(), nil
	}
	return LoadSeedFile(c.SeedFile)
}

func normalizeCPF(cpf string) (string, error) {
	normalized := domain.NormalizeCPF(cpf)
	if err := domain.ValidateCPF(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
