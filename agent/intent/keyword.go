package intent

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Intent string

const (
	None     Intent = "none"
	Credit   Intent = "credit"
	Exchange Intent = "exchange"
)

// Classifier maps a customer message onto a topic.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

var (
	creditKeywords = []string{
		"limite", "credito", "aumentar", "aumento", "emprestimo", "score", "pontos",
		"limit", "credit", "increase", "loan",
	}
	exchangeKeywords = []string{
		"dolar", "euro", "cotacao", "cambio", "moeda", "taxa", "usd", "eur", "conversao", "converter",
		"dollar", "currency", "exchange",
	}
	affirmations = []string{
		"sim", "quero", "aceito", "gostaria", "claro", "bora", "yes", "sure",
	}
	negations = []string{
		"nao", "nunca", "jamais", "nem", "negativo", "not", "never",
	}
)

// negationWindow is how many tokens before an affirmation a negation reaches.
const negationWindow = 2

// KeywordClassifier matches keyword prefixes against accent-folded tokens.
// Credit wins when a message names both topics.
type KeywordClassifier struct {
	credit   []string
	exchange []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{credit: creditKeywords, exchange: exchangeKeywords}
}

func (c *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	tokens := Tokens(text)
	switch {
	case matchAny(tokens, c.credit):
		return Credit, nil
	case matchAny(tokens, c.exchange):
		return Exchange, nil
	default:
		return None, nil
	}
}

// Affirms reports whether the message accepts an offer. A message that opens
// with a negation never does, and an affirmation is void when a negation sits
// just before it or right after it ("nao quero", "quero nao").
func Affirms(text string) bool {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return false
	}
	// "no" is also a Portuguese contraction, so it only negates as an opener.
	if tokens[0] == "no" || contains(negations, tokens[0]) {
		return false
	}
	for i, tok := range tokens {
		if !contains(affirmations, tok) {
			continue
		}
		if !negatedAt(tokens, i) {
			return true
		}
	}
	return false
}

func negatedAt(tokens []string, i int) bool {
	for j := max(0, i-negationWindow); j < i; j++ {
		if contains(negations, tokens[j]) {
			return true
		}
	}
	return i+1 < len(tokens) && contains(negations, tokens[i+1])
}

func contains(words []string, tok string) bool {
	for _, w := range words {
		if w == tok {
			return true
		}
	}
	return false
}

// OffersInterview reports whether an assistant reply proposes the financial interview.
func OffersInterview(reply string) bool {
	for _, tok := range Tokens(reply) {
		if strings.HasPrefix(tok, "entrevista") || strings.HasPrefix(tok, "interview") {
			return true
		}
	}
	return false
}

// Tokens lowercases, strips accents and splits on anything that is not a letter or digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

func matchAny(tokens, keywords []string) bool {
	for _, tok := range tokens {
		for _, kw := range keywords {
			if strings.HasPrefix(tok, kw) {
				return true
			}
		}
	}
	return false
}
