// Package api exposes a session to an external renderer over HTTP and a
// websocket event stream.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rustyeddy/cfdsim/broker"
	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/rustyeddy/cfdsim/stream"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Broker  broker.Broker
	Bus     *stream.Bus  // nil disables /api/v1/stream
	Metrics http.Handler // nil disables /metrics
	Origin  string
	Log     *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	broker broker.Broker
	log    *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	origin := d.Origin
	if origin == "" {
		origin = "*"
	}
	h := &Handler{broker: d.Broker, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", h.Snapshot)
		r.Get("/candles", h.Candles)
		r.Get("/quote", h.Quote)
		r.Get("/account", h.Account)
		r.Get("/trades", h.Trades)
		r.Get("/positions", h.Positions)
		r.Post("/positions", h.Open)
		r.Delete("/positions/{id}", h.Close)
		if d.Bus != nil {
			r.Handle("/stream", NewStreamHandler(d.Broker, d.Bus, origin, log.Named("ws")))
		}
	})
	return r
}

// snapshotResponse adds the marked-to-market positions to a snapshot.
type snapshotResponse struct {
	broker.Snapshot
	Positions []broker.Valued `json:"positions"`
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (broker.Snapshot, bool) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return broker.Snapshot{}, false
	}
	snap, err := h.broker.Snapshot(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return broker.Snapshot{}, false
	}
	return snap, true
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snap, Positions: snap.Valued()})
}

func (h *Handler) Candles(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Candles)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Quote)
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Account)
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.ClosedTrades)
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Valued())
}

type openRequest struct {
	Side string  `json:"side"`
	Lots float64 `json:"lots"`
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	side, err := ledger.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	pos, err := h.broker.RequestOpen(r.Context(), broker.OpenRequest{Side: side, Lots: req.Lots})
	if err != nil {
		h.log.Debug("open rejected", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	ct, err := h.broker.RequestClose(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Debug("close rejected", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

// writeError maps ledger rejections onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidLotSize):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientMargin):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNoPrice):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
