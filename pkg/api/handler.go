package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/kit"
	"github.com/hazyhaar/lessico/pkg/ledger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// NewRouter returns an http.Handler with all table API routes.
func NewRouter(reg *ledger.Registry, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: newEndpoints(reg, logger), reg: reg}

	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.HandleFunc("GET /v1/tables", h.handleListTables)
	mux.HandleFunc("GET /v1/tables/{table}/exists", h.handleExists)
	mux.HandleFunc("GET /v1/tables/{table}/check", methodNotAllowed)
	mux.HandleFunc("POST /v1/tables/{table}/check", h.handleCheck)
	mux.HandleFunc("GET /v1/tables/{table}/terms", methodNotAllowed)
	mux.HandleFunc("POST /v1/tables/{table}/terms", h.handleAddTerm)
	mux.HandleFunc("GET /v1/tables/{table}/finalize", methodNotAllowed)
	mux.HandleFunc("POST /v1/tables/{table}/finalize", h.handleFinalize)
	mux.HandleFunc("GET /v1/tables/{table}/passes", h.handlePasses)

	return cors(requestID(mux))
}

type handler struct {
	eps *endpoints
	reg *ledger.Registry
}

// --- tables ---

func (h *handler) handleListTables(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.listTables, nil)
}

// --- exists ---

func (h *handler) handleExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serve(w, r, h.eps.exists, &existsReq{
		Table:  r.PathValue("table"),
		Column: q.Get("column"),
		Value:  q.Get("value"),
	})
}

// --- check ---

type httpCheckRequest struct {
	Term string `json:"term"`
}

func (h *handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req httpCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.serve(w, r, h.eps.check, &checkReq{Table: r.PathValue("table"), Term: req.Term})
}

// --- add term ---

type httpAddTermRequest struct {
	Column string `json:"column"`
	Term   string `json:"term"`
}

func (h *handler) handleAddTerm(w http.ResponseWriter, r *http.Request) {
	var req httpAddTermRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.serve(w, r, h.eps.addTerm, &addTermReq{
		Table:  r.PathValue("table"),
		Column: req.Column,
		Term:   req.Term,
	})
}

// --- finalize ---

func (h *handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.finalize, &finalizeReq{Table: r.PathValue("table")})
}

// --- passes ---

func (h *handler) handlePasses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500", "", "")
			return
		}
		limit = n
	}
	h.serve(w, r, h.eps.passes, &passesReq{Table: r.PathValue("table"), Limit: limit})
}

// --- health ---

type healthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Tables: h.reg.Count()})
}

// --- helpers ---

func (h *handler) serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "", "")
		return false
	}
	return true
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, dict.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dict.ErrValidation), errors.Is(err, dict.ErrSchema):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func writeEndpointError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), Kind: dict.KindName(err)}
	var de *dict.Error
	if errors.As(err, &de) {
		resp.Field, resp.Value = de.Field, de.Value
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, field, value string) {
	writeJSON(w, code, errorResponse{Error: msg, Field: field, Value: value})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
}

// requestID tags the request context with the incoming or a fresh request ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
