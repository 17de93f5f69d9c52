package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/pkg/fxrates"
)

// DefaultCurrencies are the codes offered to customers.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "ARS", "BTC", "CAD", "CHF", "JPY"}

// RateSource is the upstream quote provider.
type RateSource interface {
	Latest(ctx context.Context, codes []string) (map[string]fxrates.Quote, error)
}

type Quote struct {
	Currency  string    `json:"currency"`
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversion struct {
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Rate      float64   `json:"rate"`
	Converted float64   `json:"converted"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	source    RateSource
	supported map[string]struct{}
	codes     []string
}

func NewService(source RateSource, currencies ...string) *Service {
	if len(currencies) == 0 {
		currencies = DefaultCurrencies
	}
	s := &Service{source: source, supported: make(map[string]struct{}, len(currencies))}
	for _, code := range currencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := s.supported[code]; dup {
			continue
		}
		s.supported[code] = struct{}{}
		s.codes = append(s.codes, code)
	}
	return s
}

func (s *Service) Supported() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

func (s *Service) normalize(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := s.supported[code]; !ok {
		return "", fmt.Errorf("%w: unsupported currency %q", domain.ErrValidation, code)
	}
	return code, nil
}

func (s *Service) Rate(ctx context.Context, code string) (Quote, error) {
	code, err := s.normalize(code)
	if err != nil {
		return Quote{}, err
	}
	quotes, err := s.fetch(ctx, []string{code})
	if err != nil {
		return Quote{}, err
	}
	q, ok := quotes[code]
	if !ok {
		return Quote{}, fmt.Errorf("%w: no quote for %s", domain.ErrExchangeUnavailable, code)
	}
	return q, nil
}

// Rates returns quotes for codes, or for every supported currency when codes
// is empty. The second value lists supported codes the provider did not quote.
func (s *Service) Rates(ctx context.Context, codes []string) ([]Quote, []string, error) {
	if len(codes) == 0 {
		codes = s.codes
	}
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		c, err := s.normalize(code)
		if err != nil {
			return nil, nil, err
		}
		normalized = append(normalized, c)
	}

	quotes, err := s.fetch(ctx, normalized)
	if err != nil {
		return nil, nil, err
	}

	out := make([]Quote, 0, len(normalized))
	var missing []string
	for _, code := range normalized {
		if q, ok := quotes[code]; ok {
			out = append(out, q)
			continue
		}
		missing = append(missing, code)
	}
	if len(out) == 0 {
		return nil, missing, fmt.Errorf("%w: provider returned no quotes", domain.ErrExchangeUnavailable)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, missing, nil
}

// Convert prices amount units of the foreign currency in the base currency.
func (s *Service) Convert(ctx context.Context, amount float64, code string) (Conversion, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return Conversion{}, err
	}
	q, err := s.Rate(ctx, code)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		Amount:    amount,
		Currency:  q.Currency,
		Rate:      q.Rate,
		Converted: math.Round(amount*q.Rate*100) / 100,
		Timestamp: q.Timestamp,
	}, nil
}

func (s *Service) fetch(ctx context.Context, codes []string) (map[string]Quote, error) {
	raw, err := s.source.Latest(ctx, codes)
	if err != nil {
		log.Warn().Err(err).Strs("codes", codes).Msg("exchange rate lookup failed")
		if errors.Is(err, fxrates.ErrUnknownCurrency) {
			return map[string]Quote{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExchangeUnavailable, err)
	}
	out := make(map[string]Quote, len(raw))
	for code, q := range raw {
		out[code] = Quote{Currency: code, Rate: q.Rate, Timestamp: q.Timestamp}
	}
	return out, nil
}
