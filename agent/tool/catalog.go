package tool

import (
	"github.com/cloudwego/eino/schema"

	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

const (
	ToolAuthenticate     = "auth_authenticate"
	ToolClientGet        = "client_get"
	ToolCreditMaxLimit   = "credit_max_limit"
	ToolCreditIncrease   = "credit_request_increase"
	ToolInterviewScore   = "interview_calculate_score"
	ToolInterviewPersist = "interview_persist_score"
	ToolExchangeRate     = "exchange_get_rate"
	ToolExchangeRates    = "exchange_get_rates"
	ToolExchangeConvert  = "exchange_convert"
	ToolSessionEnd       = "session_end"
	ToolSessionHelp      = "session_help"
)

var toolInfos = map[string]*schema.ToolInfo{
	ToolAuthenticate: {
		Name: ToolAuthenticate,
		Desc: "Authenticate the customer with CPF and date of birth. Call at most once per customer message.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"cpf": {Type: schema.String, Desc: "CPF with 11 digits, punctuation allowed", Required: true},
			"dob": {Type: schema.String, Desc: "Date of birth as DD/MM/YYYY", Required: true},
		}),
	},
	ToolClientGet: {
		Name:        ToolClientGet,
		Desc:        "Read the authenticated customer's current name, credit limit and credit score.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	ToolCreditMaxLimit: {
		Name: ToolCreditMaxLimit,
		Desc: "Look up the maximum limit allowed for a credit score. Defaults to the customer's current score.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"score": {Type: schema.Integer, Desc: "Credit score between 0 and 1000"},
		}),
	},
	ToolCreditIncrease: {
		Name: ToolCreditIncrease,
		Desc: "Request a new credit limit for the authenticated customer.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"amount": {Type: schema.Number, Desc: "Requested new limit in BRL", Required: true},
		}),
	},
	ToolInterviewScore: {
		Name: ToolInterviewScore,
		Desc: "Compute a new credit score from the financial interview answers. Does not save it.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"income":         {Type: schema.Number, Desc: "Monthly income in BRL", Required: true},
			"employment":     {Type: schema.String, Desc: "formal, self_employed or unemployed", Required: true, Enum: []string{"formal", "self_employed", "unemployed"}},
			"fixed_expenses": {Type: schema.Number, Desc: "Monthly fixed expenses in BRL", Required: true},
			"dependents":     {Type: schema.Integer, Desc: "Number of dependents", Required: true},
			"has_debt":       {Type: schema.Boolean, Desc: "Whether the customer has active debts", Required: true},
		}),
	},
	ToolInterviewPersist: {
		Name: ToolInterviewPersist,
		Desc: "Save the score returned by interview_calculate_score in this turn.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"score": {Type: schema.Integer, Desc: "Score to save", Required: true},
		}),
	},
	ToolExchangeRate: {
		Name: ToolExchangeRate,
		Desc: "Get the current rate of one foreign currency in BRL.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"currency": {Type: schema.String, Desc: "ISO code such as USD or EUR", Required: true},
		}),
	},
	ToolExchangeRates: {
		Name: ToolExchangeRates,
		Desc: "Get current rates in BRL for several currencies, or all supported ones when empty.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"currencies": {Type: schema.Array, Desc: "ISO codes", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
		}),
	},
	ToolExchangeConvert: {
		Name: ToolExchangeConvert,
		Desc: "Convert an amount of a foreign currency into BRL at the current rate.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"amount":   {Type: schema.Number, Desc: "Amount in the foreign currency", Required: true},
			"currency": {Type: schema.String, Desc: "ISO code such as USD", Required: true},
		}),
	},
	ToolSessionEnd: {
		Name: ToolSessionEnd,
		Desc: "End the conversation when the customer explicitly asks to stop.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"reason": {Type: schema.String, Desc: "Short reason"},
		}),
	},
	ToolSessionHelp: {
		Name:        ToolSessionHelp,
		Desc:        "List the services available in this conversation.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
}

var capabilityTools = map[statex.Capability][]string{
	statex.CapabilityIntake:    {ToolAuthenticate, ToolClientGet, ToolSessionEnd, ToolSessionHelp},
	statex.CapabilityCredit:    {ToolClientGet, ToolCreditMaxLimit, ToolCreditIncrease, ToolSessionEnd, ToolSessionHelp},
	statex.CapabilityInterview: {ToolInterviewScore, ToolInterviewPersist},
	statex.CapabilityExchange:  {ToolExchangeRate, ToolExchangeRates, ToolExchangeConvert},
}

// InfosFor returns the tool schemas offered to a capability's agent.
func InfosFor(c statex.Capability) []*schema.ToolInfo {
	names := capabilityTools[c]
	out := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		out = append(out, toolInfos[name])
	}
	return out
}

func allowed(c statex.Capability, tool string) bool {
	for _, name := range capabilityTools[c] {
		if name == tool {
			return true
		}
	}
	return false
}
