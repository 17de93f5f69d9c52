package prompt

import (
	"strings"
	"testing"

	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	for _, c := range []statex.Capability{
		statex.CapabilityIntake,
		statex.CapabilityCredit,
		statex.CapabilityInterview,
		statex.CapabilityExchange,
	} {
		p := set.For(c)
		if p == "" {
			t.Fatalf("prompt for %s is empty", c)
		}
		// Prompts are rendered as FString templates.
		if strings.ContainsAny(p, "{}") {
			t.Fatalf("prompt for %s contains template braces", c)
		}
	}
	if set.For("unknown") != "" {
		t.Fatal("unknown capability should have no prompt")
	}
}

func TestCreditPromptMentionsInterviewOffer(t *testing.T) {
	t.Parallel()

	if !strings.Contains(LoadPromptSet().Credit, "entrevista") {
		t.Fatal("credit prompt must make the interview offer recognisable")
	}
}
