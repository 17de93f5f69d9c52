package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

const incomeWeight = 200.0

type Employment string

const (
	EmploymentFormal       Employment = "formal"
	EmploymentSelfEmployed Employment = "self_employed"
	EmploymentUnemployed   Employment = "unemployed"
)

var employmentWeights = map[Employment]float64{
	EmploymentFormal:       200,
	EmploymentSelfEmployed: 150,
	EmploymentUnemployed:   0,
}

var employmentAliases = map[string]Employment{
	"formal":        EmploymentFormal,
	"clt":           EmploymentFormal,
	"registrado":    EmploymentFormal,
	"self_employed": EmploymentSelfEmployed,
	"self-employed": EmploymentSelfEmployed,
	"autonomo":      EmploymentSelfEmployed,
	"autônomo":      EmploymentSelfEmployed,
	"freelancer":    EmploymentSelfEmployed,
	"unemployed":    EmploymentUnemployed,
	"desempregado":  EmploymentUnemployed,
}

// Inputs are the financial interview answers.
type Inputs struct {
	Income        float64    `json:"income"`
	Employment    Employment `json:"employment"`
	FixedExpenses float64    `json:"fixed_expenses"`
	Dependents    int        `json:"dependents"`
	HasDebt       bool       `json:"has_debt"`
}

func (in Inputs) Validate() error {
	if !finite(in.Income) || in.Income < 0 {
		return fmt.Errorf("%w: income must be a non-negative number", domain.ErrScoreCalculation)
	}
	if !finite(in.FixedExpenses) || in.FixedExpenses < 0 {
		return fmt.Errorf("%w: fixed expenses must be a non-negative number", domain.ErrScoreCalculation)
	}
	if in.Dependents < 0 {
		return fmt.Errorf("%w: dependents must be >= 0", domain.ErrScoreCalculation)
	}
	if _, ok := employmentWeights[in.Employment]; !ok {
		return fmt.Errorf("%w: unknown employment type %q", domain.ErrScoreCalculation, in.Employment)
	}
	return nil
}

// Calculate computes the score, truncated toward zero and clamped to [0,1000].
func Calculate(in Inputs) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var raw float64
	if in.FixedExpenses < in.Income {
		raw += in.Income / (in.FixedExpenses + 1) * incomeWeight
	}
	raw += employmentWeights[in.Employment]
	raw += dependentsWeight(in.Dependents)
	if in.HasDebt {
		raw -= 50
	} else {
		raw += 50
	}

	s := int(math.Trunc(raw))
	if s < domain.MinScore {
		s = domain.MinScore
	}
	if s > domain.MaxScore {
		s = domain.MaxScore
	}
	return s, nil
}

func dependentsWeight(n int) float64 {
	switch {
	case n <= 0:
		return 50
	case n == 1:
		return 35
	case n == 2:
		return 20
	default:
		return 10
	}
}

// ParseEmployment maps free-form employment answers onto the known categories.
func ParseEmployment(raw string) (Employment, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if e, ok := employmentAliases[key]; ok {
		return e, nil
	}
	return "", fmt.Errorf("%w: unknown employment type %q", domain.ErrValidation, raw)
}

// ParseDebt maps a yes/no answer onto a boolean.
func ParseDebt(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sim", "s", "yes", "y", "true", "1":
		return true, nil
	case "nao", "não", "n", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: cannot read %q as yes or no", domain.ErrValidation, raw)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
