package score

type Classification string

const (
	VeryLow   Classification = "very_low"
	Low       Classification = "low"
	Regular   Classification = "regular"
	Good      Classification = "good"
	Excellent Classification = "excellent"
)

func Classify(score int) Classification {
	switch {
	case score < 300:
		return VeryLow
	case score < 500:
		return Low
	case score < 700:
		return Regular
	case score < 850:
		return Good
	default:
		return Excellent
	}
}

// Advice shown to the customer after the interview.
const (
	AdviceExpenses    = "Reduza suas despesas fixas: hoje elas passam de 70% da sua renda."
	AdviceEmployment  = "Um emprego formal, com carteira assinada, pode melhorar bastante o seu score."
	AdviceDebt        = "Quitar as dívidas em aberto ajuda a subir o seu score."
	AdviceDependents  = "O número de dependentes pesa no score; planeje bem o orçamento da casa."
	AdviceKeepGoing   = "Continue com as finanças organizadas e as contas em dia para melhorar ainda mais."
	AdviceCongratsTop = "Parabéns! Seu score está excelente. Continue assim!"
)

// Recommendations lists improvement advice for the interview answers. The
// expense rule compares against 70% of income, so zero income with any
// expenses, zero included, triggers it.
func Recommendations(in Inputs, score int) []string {
	var out []string
	if in.FixedExpenses >= 0.7*in.Income {
		out = append(out, AdviceExpenses)
	}
	if in.Employment != EmploymentFormal {
		out = append(out, AdviceEmployment)
	}
	if in.HasDebt {
		out = append(out, AdviceDebt)
	}
	if in.Dependents >= 3 {
		out = append(out, AdviceDependents)
	}
	if len(out) > 0 {
		return out
	}
	if score < 850 {
		return []string{AdviceKeepGoing}
	}
	return []string{AdviceCongratsTop}
}
