package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
)

type fakeConversation struct {
	store statex.Store
	reply string
	err   error
	calls int
}

func (f *fakeConversation) HandleMessage(ctx context.Context, sessionID, text string) (string, *statex.SessionState, error) {
	f.calls++
	if f.err != nil {
		return f.reply, nil, f.err
	}
	st, err := f.store.Load(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	st.AppendTurn(statex.RoleUser, text)
	st.AppendTurn(statex.RoleAssistant, f.reply)
	st.Version++
	if err := f.store.Save(ctx, st); err != nil {
		return "", nil, err
	}
	return f.reply, st, nil
}

func newTestServer(t *testing.T, conv *fakeConversation) (*httptest.Server, statex.Store) {
	t.Helper()
	store := statex.NewMemoryStore()
	conv.store = store
	h := NewHandler(conv, store)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createSession(t *testing.T, baseURL string) sessionView {
	t.Helper()
	resp := do(t, http.MethodPost, baseURL+"/v1/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decode[sessionView](t, resp)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	conv := &fakeConversation{reply: "Olá! Informe seu CPF e data de nascimento."}
	srv, _ := newTestServer(t, conv)

	created := createSession(t, srv.URL)
	if created.ID == "" || created.ActiveCapability != statex.CapabilityIntake {
		t.Fatalf("unexpected created session: %+v", created)
	}

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+created.ID+"/messages", `{"message":"oi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("message status = %d", resp.StatusCode)
	}
	out := decode[messageResponse](t, resp)
	if out.Reply != conv.reply || out.Session.Version != 1 || len(out.Session.History) != 2 {
		t.Fatalf("unexpected message response: %+v", out)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/sessions/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got := decode[sessionView](t, resp); got.Version != 1 {
		t.Fatalf("Version = %d, want 1", got.Version)
	}

	resp = do(t, http.MethodDelete, srv.URL+"/v1/sessions/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/v1/sessions/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	t.Parallel()

	conv := &fakeConversation{reply: "x"}
	srv, _ := newTestServer(t, conv)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/missing/messages", `{"message":"oi"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if conv.calls != 0 {
		t.Fatal("conversation should not run for an unknown session")
	}
}

func TestPostMessageBadBody(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeConversation{})
	created := createSession(t, srv.URL)

	for _, body := range []string{`{`, `{"message":"  "}`} {
		resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+created.ID+"/messages", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPostMessageErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"conflict", fmt.Errorf("save session: %w", statex.ErrVersionConflict), http.StatusConflict},
		{"ended", contractx.ErrSessionEnded, http.StatusGone},
		{"internal", fmt.Errorf("load session: boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t, &fakeConversation{reply: "Atendimento encerrado.", err: tc.err})
			created := createSession(t, srv.URL)

			resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+created.ID+"/messages", `{"message":"oi"}`)
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			body := decode[errorResponse](t, resp)
			if tc.status == http.StatusInternalServerError && strings.Contains(body.Error, "boom") {
				t.Fatal("internal errors must not leak details")
			}
			if tc.status == http.StatusGone && body.Reply == "" {
				t.Fatal("ended session should carry the closing reply")
			}
		})
	}
}

func TestSessionViewMasksCPF(t *testing.T) {
	t.Parallel()

	st := statex.NewSessionState("s", time.Now())
	st.Authenticate(statex.ClientSnapshot{CPF: "12345678900", Name: "João Silva", CreditLimit: 5000, CreditScore: 650})

	v := viewOf(st)
	if v.Client == nil || strings.Contains(v.Client.CPF, "123456789") {
		t.Fatalf("cpf not masked: %+v", v.Client)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeConversation{})
	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
