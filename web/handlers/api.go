package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/internal/metabolism"
	"github.com/scrypster/ephemera/pkg/types"
)

// maxBodyBytes bounds request bodies read by the API.
const maxBodyBytes = 1 << 20

// msgQuestionNotPending is the client-facing text for a reply to a question
// that is not pending.
const msgQuestionNotPending = "Question not found or already answered"

// Lifeform is the subset of the metabolism used by the HTTP layer.
type Lifeform interface {
	State(ctx context.Context) (types.StatePayload, error)
	IngestReply(ctx context.Context, questionID int64, text string) (types.StatePayload, error)
	Seed(ctx context.Context) (types.StatePayload, error)
}

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	lifeform Lifeform
	logger   *slog.Logger
}

// NewAPIHandlers creates a new APIHandlers instance. A nil logger uses
// slog.Default.
func NewAPIHandlers(lifeform Lifeform, logger *slog.Logger) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandlers{lifeform: lifeform, logger: logger}
}

// Register mounts every route on mux.
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/state", h.GetState)
	mux.HandleFunc("POST /api/reply", h.PostReply)
	mux.HandleFunc("POST /api/admin/seed", h.PostSeed)
	mux.HandleFunc("POST /api/insights", h.PostInsights)
	mux.HandleFunc("POST /hooks/twilio/sms", h.twilioHook("twilio.sms"))
	mux.HandleFunc("POST /hooks/twilio/status", h.twilioHook("twilio.status"))
}

// Health handles GET /health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// GetState handles GET /api/state. A question is generated when none is pending.
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	payload, err := h.lifeform.State(r.Context())
	if err != nil {
		h.logger.Error("api.state failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load state")
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// replyBody keeps question_id raw so that only JSON integers are accepted.
type replyBody struct {
	QuestionID json.RawMessage `json:"question_id"`
	Text       json.RawMessage `json:"text"`
}

// PostReply handles POST /api/reply.
func (h *APIHandlers) PostReply(w http.ResponseWriter, r *http.Request) {
	var body replyBody
	// An unreadable body is treated like an empty object.
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)

	questionID, ok := parseInteger(body.QuestionID)
	if !ok {
		respondError(w, http.StatusBadRequest, "question_id must be provided")
		return
	}

	var text string
	if len(body.Text) > 0 {
		_ = json.Unmarshal(body.Text, &text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "text must be provided")
		return
	}

	payload, err := h.lifeform.IngestReply(r.Context(), questionID, text)
	if errors.Is(err, metabolism.ErrQuestionNotPending) {
		respondError(w, http.StatusBadRequest, msgQuestionNotPending)
		return
	}
	if err != nil {
		h.logger.Error("api.reply failed", "question_id", questionID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to ingest reply")
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// PostSeed handles POST /api/admin/seed.
func (h *APIHandlers) PostSeed(w http.ResponseWriter, r *http.Request) {
	payload, err := h.lifeform.Seed(r.Context())
	if err != nil {
		h.logger.Error("api.seed failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to seed state")
		return
	}
	respondJSON(w, http.StatusCreated, payload)
}

// PostInsights handles POST /api/insights and returns the deterministic
// bundle for the posted thread fields.
func (h *APIHandlers) PostInsights(w http.ResponseWriter, r *http.Request) {
	var req InsightRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "title must be provided")
		return
	}
	if req.Emotion == "" {
		req.Emotion = types.EmotionCuriosity
	}
	if !insight.IsKnownEmotion(req.Emotion) {
		respondError(w, http.StatusBadRequest, "unknown emotion")
		return
	}

	seed := req.Seed()
	respondJSON(w, http.StatusOK, InsightResponse{
		Seed:     seed.Seed(),
		Keyword:  seed.Keyword(),
		Insights: insight.Generate(seed),
	})
}

// twilioHook logs the posted form under event and acknowledges with 204.
func (h *APIHandlers) twilioHook(event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.logger.Warn(event+" unreadable form", "error", err)
		}
		attrs := make([]any, 0, len(r.PostForm)*2)
		for key := range r.PostForm {
			attrs = append(attrs, key, r.PostForm.Get(key))
		}
		h.logger.Info(event, slog.Group("payload", attrs...))
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseInteger accepts a JSON integer literal and nothing else.
func parseInteger(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] < '-' || raw[0] > '9' || bytes.ContainsAny(raw, ".eE") {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing else can be written.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	})
}
