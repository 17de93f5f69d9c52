package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
	statex "github.com/tanpawarit/Chative-Banking-Dialogue/agent/state"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

const maxRequestBodySize = 64 << 10

// Conversation runs one customer message against a stored session.
type Conversation interface {
	HandleMessage(ctx context.Context, sessionID, text string) (string, *statex.SessionState, error)
}

type Handler struct {
	conv  Conversation
	store statex.Store
	now   func() time.Time
}

func NewHandler(conv Conversation, store statex.Store) *Handler {
	return &Handler{conv: conv, store: store, now: time.Now}
}

// Routes mounts the session API on a fresh router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Get("/{id}", h.getSession)
		r.Delete("/{id}", h.deleteSession)
		r.Post("/{id}/messages", h.postMessage)
	})
	return r
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Reply   string      `json:"reply"`
	Session sessionView `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
	Reply string `json:"reply,omitempty"`
}

type clientView struct {
	CPF         string  `json:"cpf"`
	Name        string  `json:"name"`
	CreditLimit float64 `json:"credit_limit"`
	CreditScore int     `json:"credit_score"`
}

// sessionView is the public shape of a session. The cpf is masked.
type sessionView struct {
	ID               string            `json:"id"`
	Version          int64             `json:"version"`
	ActiveCapability statex.Capability `json:"active_capability"`
	Authenticated    bool              `json:"authenticated"`
	Client           *clientView       `json:"client,omitempty"`
	LockedOut        bool              `json:"locked_out"`
	Ended            bool              `json:"ended"`
	EndReason        string            `json:"end_reason,omitempty"`
	History          []statex.Turn     `json:"history"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func viewOf(st *statex.SessionState) sessionView {
	v := sessionView{
		ID:               st.SessionID,
		Version:          st.Version,
		ActiveCapability: st.ActiveCapability,
		Authenticated:    st.Authenticated,
		LockedOut:        st.LockedOut,
		Ended:            st.Ended,
		EndReason:        st.EndReason,
		History:          st.History,
		CreatedAt:        st.CreatedAt,
		UpdatedAt:        st.UpdatedAt,
	}
	if v.History == nil {
		v.History = []statex.Turn{}
	}
	if c := st.Client; c != nil {
		v.Client = &clientView{
			CPF:         domain.MaskCPF(c.CPF),
			Name:        c.Name,
			CreditLimit: c.CreditLimit,
			CreditScore: c.CreditScore,
		}
	}
	return v
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	st := statex.NewSessionState(uuid.NewString(), h.now())
	if err := h.store.Save(r.Context(), st); err != nil {
		h.fail(w, r, err, "")
		return
	}
	log.Info().Str("session_id", st.SessionID).Msg("session created")
	writeJSON(w, http.StatusCreated, viewOf(st))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Load(r.Context(), id); err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	if _, err := h.store.Load(r.Context(), id); err != nil {
		h.fail(w, r, err, "")
		return
	}

	reply, st, err := h.conv.HandleMessage(r.Context(), id, body.Message)
	if err != nil {
		h.fail(w, r, err, reply)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Reply: reply, Session: viewOf(st)})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, reply string) {
	status := statusOf(err)
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("session request failed")

	writeJSON(w, status, errorResponse{Error: msg, Reply: reply})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		return http.StatusNotFound
	case errors.Is(err, statex.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, contractx.ErrSessionEnded):
		return http.StatusGone
	case errors.Is(err, statex.ErrInvalidSession),
		errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
