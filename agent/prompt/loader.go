package prompt

import (
	_ "embed"
	"strings"

	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

var (
	//go:embed template/intake.txt
	intakeRaw string

	//go:embed template/credit.txt
	creditRaw string

	//go:embed template/interview.txt
	interviewRaw string

	//go:embed template/exchange.txt
	exchangeRaw string
)

// PromptSet holds the system prompt of each capability.
type PromptSet struct {
	Intake    string
	Credit    string
	Interview string
	Exchange  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Intake:    strings.TrimSpace(intakeRaw),
		Credit:    strings.TrimSpace(creditRaw),
		Interview: strings.TrimSpace(interviewRaw),
		Exchange:  strings.TrimSpace(exchangeRaw),
	}
}

// For returns the prompt of a capability, or "" when it has none.
func (p PromptSet) For(c statex.Capability) string {
	switch c {
	case statex.CapabilityIntake:
		return p.Intake
	case statex.CapabilityCredit:
		return p.Credit
	case statex.CapabilityInterview:
		return p.Interview
	case statex.CapabilityExchange:
		return p.Exchange
	default:
		return ""
	}
}
