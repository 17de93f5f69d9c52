package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

// MemoryRegistry keeps everything in process. Each client has its own lock so
// Apply on different clients never serializes.
type MemoryRegistry struct {
	mu       sync.RWMutex
	clients  map[string]*memoryEntry
	requests []domain.LimitRequest
	bands    domain.BandTable
	now      func() time.Time
}

type memoryEntry struct {
	mu  sync.Mutex
	rec domain.ClientRecord
}

type MemoryOption func(*MemoryRegistry)

func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewMemoryRegistry(seed Seed, opts ...MemoryOption) (*MemoryRegistry, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	reg := &MemoryRegistry{
		clients: make(map[string]*memoryEntry, len(seed.Clients)),
		bands:   seed.Bands.Sorted(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}
	for _, rec := range seed.Clients {
		rec.Version = 1
		reg.clients[rec.CPF] = &memoryEntry{rec: rec}
	}
	return reg, nil
}

func (r *MemoryRegistry) entry(cpf string) (*memoryEntry, error) {
	normalized, err := normalizeCPF(cpf)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	e, ok := r.clients[normalized]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, domain.MaskCPF(normalized))
	}
	return e, nil
}

func (r *MemoryRegistry) FindByCPF(ctx context.Context, cpf string) (domain.ClientRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClientRecord{}, err
	}
	e, err := r.entry(cpf)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, nil
}

func (r *MemoryRegistry) Authenticate(ctx context.Context, cpf, dob string) (*domain.ClientRecord, error) {
	normalized, err := normalizeCPF(cpf)
	if err != nil {
		return nil, err
	}
	dob = strings.TrimSpace(dob)
	if err := domain.ValidateDOB(dob, r.now()); err != nil {
		return nil, err
	}
	rec, err := r.FindByCPF(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if rec.DateOfBirth != dob {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemoryRegistry) UpdateScore(ctx context.Context, cpf string, score int) error {
	_, err := r.Apply(ctx, cpf, func(domain.ClientRecord) (Mutation, error) {
		return Mutation{Score: &score}, nil
	})
	return err
}

func (r *MemoryRegistry) UpdateLimit(ctx context.Context, cpf string, limit float64) error {
	_, err := r.Apply(ctx, cpf, func(domain.ClientRecord) (Mutation, error) {
		return Mutation{Limit: &limit}, nil
	})
	return err
}

func (r *MemoryRegistry) AppendLimitRequest(ctx context.Context, req domain.LimitRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req.CPF = domain.NormalizeCPF(req.CPF)
	if err := req.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) MaxLimitForScore(_ context.Context, score int) (float64, error) {
	if err := domain.ValidateScore(score); err != nil {
		return 0, err
	}
	return r.bands.MaxLimitFor(score)
}

func (r *MemoryRegistry) ScoreBands(context.Context) (domain.BandTable, error) {
	out := make(domain.BandTable, len(r.bands))
	copy(out, r.bands)
	return out, nil
}

func (r *MemoryRegistry) Apply(ctx context.Context, cpf string, fn MutateFunc) (Change, error) {
	if fn == nil {
		return Change{}, fmt.Errorf("%w: nil mutate func", domain.ErrValidation)
	}
	e, err := r.entry(cpf)
	if err != nil {
		return Change{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Change{}, err
	}

	before := e.rec
	m, err := fn(before)
	if err != nil {
		return Change{}, err
	}
	if m.Empty() {
		return Change{Before: before, After: before}, nil
	}
	if err := m.validate(before.CPF); err != nil {
		return Change{}, err
	}

	after := m.applyTo(before)
	after.Version = before.Version + 1
	if m.Request != nil {
		r.mu.Lock()
		r.requests = append(r.requests, *m.Request)
		r.mu.Unlock()
	}
	e.rec = after
	return Change{Before: before, After: after, Request: m.Request}, nil
}

// LimitRequests returns a copy of the log for cpf, oldest first.
func (r *MemoryRegistry) LimitRequests(_ context.Context, cpf string) ([]domain.LimitRequest, error) {
	normalized := domain.NormalizeCPF(cpf)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.LimitRequest, 0, 4)
	for _, req := range r.requests {
		if req.CPF == normalized {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *MemoryRegistry) Close() error { return nil }
