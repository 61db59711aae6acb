package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yashs662/SynchroStore/internal/logger"
	"github.com/yashs662/SynchroStore/internal/utils"
	"github.com/yashs662/SynchroStore/pkg/persistent"
)

// KV is the store surface the handlers need; *persistent.Store satisfies it.
type KV interface {
	Get(key string, def any) any
	Set(key string, value any) error
	Delete(key string) error
	Clear() error
	Incr(key string, delta int64) (int64, error)
	Keys() []string
	Err() error
}

type absentValue struct{ _ byte }

// absent is a Get default that no decoded JSON value can equal.
var absent any = &absentValue{}

type Handlers struct {
	Store KV
}

func NewHandlers(store KV) *Handlers {
	return &Handlers{Store: store}
}

type setRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type valueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Routes returns the API mux wrapped in request logging.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get", h.Get)
	mux.HandleFunc("POST /set", h.Set)
	mux.HandleFunc("POST /delete", h.Delete)
	mux.HandleFunc("POST /clear", h.Clear)
	mux.HandleFunc("POST /incr", h.Incr)
	mux.HandleFunc("GET /keys", h.Keys)
	mux.HandleFunc("GET /health", h.Health)
	return loggingMiddleware(mux)
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	value := h.Store.Get(key, absent)
	if value == absent {
		logger.Warnf("Key not found: %s", key)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "key not found"})
		return
	}
	logger.Debugf("Retrieved key %s", key)
	writeJSON(w, http.StatusOK, valueResponse{Key: key, Value: value})
}

func (h *Handlers) Set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing key"})
		return
	}
	if err := h.Store.Set(req.Key, req.Value); err != nil {
		writeStoreError(w, err)
		return
	}
	logger.Infof("Set key %s", req.Key)
	writeJSON(w, http.StatusOK, valueResponse{Key: req.Key, Value: req.Value})
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(key); err != nil {
		writeStoreError(w, err)
		return
	}
	logger.Infof("Deleted key %s", key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Clear(); err != nil {
		writeStoreError(w, err)
		return
	}
	logger.Info("Cleared store")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Incr(w http.ResponseWriter, r *http.Request) {
	key, ok := requireKey(w, r)
	if !ok {
		return
	}
	delta := int64(1)
	if raw := r.URL.Query().Get("delta"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid delta"})
			return
		}
		delta = parsed
	}
	value, err := h.Store.Incr(key, delta)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Key: key, Value: value})
}

func (h *Handlers) Keys(w http.ResponseWriter, r *http.Request) {
	keys, err := utils.FilterKeys(h.Store.Keys(), r.URL.Query().Get("pattern"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func requireKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing key"})
		return "", false
	}
	return key, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	var flushErr *persistent.FlushError
	if errors.As(err, &flushErr) {
		logger.Errorf("Storage flush failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnf("Failed to write response: %v", err)
	}
}
