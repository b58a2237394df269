package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/configme/internal/loader"
	"github.com/eugenenazirov/configme/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxBodyBytes = 1 << 20

// Handler exposes a settings Store over HTTP.
type Handler struct {
	store  *storage.Store
	logger *zap.Logger

	clock func() time.Time

	mu        sync.RWMutex
	updatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used to report responses that cannot be
// encoded.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler serving store.
func NewHandler(store *storage.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:  store,
		logger: zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.updatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Environment: h.store.Environment(),
		Timestamp:   h.clock(),
	}
	h.respond(w, r, http.StatusOK, resp)
}

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings := h.store.Snapshot()
	resp := settingsResponse{
		Environment: h.store.Environment(),
		Keys:        slices.Sorted(maps.Keys(settings)),
		Settings:    settings,
		UpdatedAt:   h.currentUpdatedAt(),
	}
	h.respond(w, r, http.StatusOK, resp)
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, ok := h.store.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Setting not found", "no setting stored under "+key)
		return
	}

	h.respond(w, r, http.StatusOK, h.settingResponse(key, value, ""))
}

func (h *Handler) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "value is required")
		return
	}

	value, err := decodeValue(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse value")
		return
	}

	h.store.Set(key, value)
	h.markUpdated()

	stored, _ := h.store.Get(key)
	h.respond(w, r, http.StatusOK, h.settingResponse(key, stored, "Setting updated successfully"))
}

func (h *Handler) handlePushSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req struct {
		Values []json.RawMessage `json:"values"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Values) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "values must contain at least one item")
		return
	}

	values := make([]any, 0, len(req.Values))
	for _, raw := range req.Values {
		value, err := decodeValue(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse values")
			return
		}
		values = append(values, value)
	}

	h.store.Push(key, values...)
	h.markUpdated()

	stored, _ := h.store.Get(key)
	h.respond(w, r, http.StatusOK, h.settingResponse(key, stored, "Values appended successfully"))
}

// respond writes payload, or a 500 when stored values such as NaN cannot be
// represented in JSON.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := writeJSON(w, status, payload); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func (h *Handler) settingResponse(key string, value any, message string) settingResponse {
	return settingResponse{
		Key:         key,
		Value:       value,
		Environment: h.store.Environment(),
		UpdatedAt:   h.currentUpdatedAt(),
		Message:     message,
	}
}

func (h *Handler) currentUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt
}

func (h *Handler) markUpdated() {
	h.mu.Lock()
	h.updatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// decodeValue decodes one JSON value into the canonical settings shapes.
func decodeValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty value")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return loader.Normalize(value)
}

type settingsResponse struct {
	Environment string         `json:"environment"`
	Keys        []string       `json:"keys"`
	Settings    map[string]any `json:"settings"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type settingResponse struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Environment string    `json:"environment"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Message     string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON encodes payload fully before writing the status. Encoding
// failures are answered with a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		err = fmt.Errorf("encode response: %w", err)
		writeInternalError(w, err)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	_ = writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
