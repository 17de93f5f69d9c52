package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   Inputs
		want int
	}{
		{
			name: "formal with two dependents",
			in:   Inputs{Income: 5000, Employment: EmploymentFormal, FixedExpenses: 2000, Dependents: 2, HasDebt: false},
			want: 769,
		},
		{
			name: "expenses above income clamps to zero",
			in:   Inputs{Income: 1000, Employment: EmploymentUnemployed, FixedExpenses: 1000, Dependents: 3, HasDebt: true},
			want: 0,
		},
		{
			name: "no expenses clamps to max",
			in:   Inputs{Income: 3000, Employment: EmploymentSelfEmployed, FixedExpenses: 0, Dependents: 0},
			want: 1000,
		},
		{
			name: "self employed with debt",
			in:   Inputs{Income: 2000, Employment: EmploymentSelfEmployed, FixedExpenses: 1999, Dependents: 1, HasDebt: true},
			want: 335,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Calculate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateRejectsInvalidInputs(t *testing.T) {
	t.Parallel()

	bad := []Inputs{
		{Income: -1, Employment: EmploymentFormal},
		{Income: math.NaN(), Employment: EmploymentFormal},
		{Income: 1000, FixedExpenses: -5, Employment: EmploymentFormal},
		{Income: 1000, Employment: "pirate"},
		{Income: 1000, Employment: EmploymentFormal, Dependents: -1},
	}
	for _, in := range bad {
		_, err := Calculate(in)
		assert.ErrorIs(t, err, domain.ErrScoreCalculation)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, VeryLow, Classify(0))
	assert.Equal(t, VeryLow, Classify(299))
	assert.Equal(t, Low, Classify(300))
	assert.Equal(t, Regular, Classify(650))
	assert.Equal(t, Good, Classify(849))
	assert.Equal(t, Excellent, Classify(850))
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	in := Inputs{Income: 1000, Employment: EmploymentSelfEmployed, FixedExpenses: 800, Dependents: 3, HasDebt: true}
	assert.Len(t, Recommendations(in, 200), 4)

	assert.Equal(t, []string{AdviceExpenses, AdviceEmployment, AdviceDebt, AdviceDependents}, Recommendations(in, 200))

	clean := Inputs{Income: 10000, Employment: EmploymentFormal, FixedExpenses: 100}
	assert.Equal(t, []string{AdviceCongratsTop}, Recommendations(clean, 900))
	assert.Equal(t, []string{AdviceKeepGoing}, Recommendations(clean, 700))

	noIncome := Inputs{Income: 0, Employment: EmploymentFormal, FixedExpenses: 0}
	assert.Equal(t, []string{AdviceExpenses}, Recommendations(noIncome, 400), "zero income always trips the expense rule")

	atThreshold := Inputs{Income: 1000, Employment: EmploymentFormal, FixedExpenses: 700}
	assert.Contains(t, Recommendations(atThreshold, 600), AdviceExpenses)
}

func TestParsers(t *testing.T) {
	t.Parallel()

	e, err := ParseEmployment(" Autonomo ")
	require.NoError(t, err)
	assert.Equal(t, EmploymentSelfEmployed, e)

	_, err = ParseEmployment("astronaut")
	assert.ErrorIs(t, err, domain.ErrValidation)

	debt, err := ParseDebt("Sim")
	require.NoError(t, err)
	assert.True(t, debt)

	debt, err = ParseDebt("não")
	require.NoError(t, err)
	assert.False(t, debt)

	_, err = ParseDebt("maybe")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
