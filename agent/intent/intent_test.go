package intent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func TestKeywordClassifier(t *testing.T) {
	t.Parallel()

	c := NewKeywordClassifier()
	cases := map[string]Intent{
		"Quero aumentar meu limite":         Credit,
		"Qual é a cotação do dólar hoje?":   Exchange,
		"quanto está o EURO":                Exchange,
		"Meu CRÉDITO está baixo":            Credit,
		"olá, tudo bem?":                    None,
		"limite e dólar":                    Credit,
		"[CONTINUE]":                        None,
		"I want to convert 100 USD to BRL":  Exchange,
		"Can I get a loan increase please?": Credit,
	}
	for text, want := range cases {
		got, err := c.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", text, err)
		}
		if got != want {
			t.Fatalf("Classify(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestAffirms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want bool
	}{
		{"Sim, quero fazer!", true},
		{"claro", true},
		{"Aceito a entrevista", true},
		{"quero sim, não tenho pressa", true},
		{"Yes, sure", true},
		{"simplesmente não", false},
		{"Não quero fazer a entrevista", false},
		{"não, obrigado, não pode ser agora", false},
		{"Não gostaria", false},
		{"agora não, quero depois", false},
		{"quero não", false},
		{"eu nunca quero isso", false},
		{"No, thanks", false},
		{"pode ser", false},
		{"ok", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Affirms(tc.text); got != tc.want {
			t.Fatalf("Affirms(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestOffersInterview(t *testing.T) {
	t.Parallel()

	if !OffersInterview("Posso fazer uma Entrevista financeira para reavaliar seu score?") {
		t.Fatal("expected interview offer")
	}
	if OffersInterview("Seu limite foi aprovado.") {
		t.Fatal("unexpected interview offer")
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(server.URL+"/"),
		option.WithMaxRetries(0),
	)
	return &client
}

func completion(content string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestLLMClassifierUsesModelLabel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") || !strings.Contains(string(body), "quanto custa") {
			t.Errorf("unexpected request %s %s", r.URL.Path, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion("Exchange."))
	})

	c, err := NewLLMClassifier(client, "test-model", nil)
	if err != nil {
		t.Fatalf("NewLLMClassifier() error = %v", err)
	}
	got, err := c.Classify(context.Background(), "quanto custa a libra")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != Exchange {
		t.Fatalf("Classify() = %s, want exchange", got)
	}
}

func TestLLMClassifierFallsBackOnFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
	})

	c, err := NewLLMClassifier(client, "test-model", NewKeywordClassifier())
	if err != nil {
		t.Fatalf("NewLLMClassifier() error = %v", err)
	}
	got, err := c.Classify(context.Background(), "aumentar limite")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != Credit {
		t.Fatalf("Classify() = %s, want credit", got)
	}
}
