package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"stockfolio/ledger"
	"stockfolio/models"
	"stockfolio/store"
)

// APIHandler handles HTTP API requests. It only translates JSON and
// status codes; every rule lives in the ledger and the store.
type APIHandler struct {
	app *App
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(app *App) *APIHandler {
	return &APIHandler{app: app}
}

// positionRequest is the body for opening or editing a position.
// EditIndex, when set, targets the row to replace in place.
type positionRequest struct {
	Ticker    string          `json:"ticker"`
	Shares    decimal.Decimal `json:"shares"`
	AvgPrice  decimal.Decimal `json:"avgPrice"`
	EditIndex *int            `json:"editIndex,omitempty"`
}

// tradeRequest is the body for buy and sell commits.
type tradeRequest struct {
	Shares decimal.Decimal `json:"shares"`
}

// handleHealth returns the health status of the application
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if err := h.app.Health(r.Context()); err != nil {
		status["status"] = "degraded"
		status["error"] = err.Error()
		h.jsonResponse(w, http.StatusServiceUnavailable, status)
		return
	}
	h.jsonResponse(w, http.StatusOK, status)
}

// handleGetBook returns the book's positions in display order
func (h *APIHandler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	positions, err := h.app.store.Positions(chi.URLParam(r, "book"))
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{
		"positions": positions,
		"count":     len(positions),
	})
}

// handleGetSummary returns the book's derived aggregates
func (h *APIHandler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.app.store.Summary(chi.URLParam(r, "book"))
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, summary)
}

// handleOpenPosition opens a new position or replaces the row named by editIndex
func (h *APIHandler) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	editIndex := ledger.Append
	if req.EditIndex != nil {
		editIndex = *req.EditIndex
	}
	entry := ledger.Entry{Ticker: req.Ticker, Shares: req.Shares, AvgPrice: req.AvgPrice}

	book := chi.URLParam(r, "book")
	if err := h.app.store.AddPosition(r.Context(), book, entry, editIndex); err != nil {
		h.errorResponse(w, err)
		return
	}

	positions, err := h.app.store.Positions(book)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, map[string]any{"positions": positions})
}

// handleRemovePosition removes the position at the given ordinal
func (h *APIHandler) handleRemovePosition(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}
	if err := h.app.store.RemovePosition(r.Context(), chi.URLParam(r, "book"), index); err != nil {
		h.errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBuy commits a buy of additional shares at the current price
func (h *APIHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, false)
}

// handleSell commits a sell of held shares at the current price
func (h *APIHandler) handleSell(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, true)
}

func (h *APIHandler) handleTrade(w http.ResponseWriter, r *http.Request, sell bool) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	book := chi.URLParam(r, "book")
	if err := h.app.store.Trade(r.Context(), book, index, sell, req.Shares); err != nil {
		h.errorResponse(w, err)
		return
	}

	positions, err := h.app.store.Positions(book)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"positions": positions})
}

// handleRefresh re-resolves prices for every position in the book
func (h *APIHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	book := chi.URLParam(r, "book")
	if err := h.app.store.Refresh(r.Context(), book); err != nil {
		h.errorResponse(w, err)
		return
	}
	positions, err := h.app.store.Positions(book)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]any{"positions": positions})
}

// handleImport merges recognized positions from the document-recognition
// backend into the book
func (h *APIHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req models.RecognizedImport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.app.store.Import(r.Context(), chi.URLParam(r, "book"), req.Items)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

func (h *APIHandler) parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.jsonError(w, "invalid position index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

// errorResponse maps engine error kinds to HTTP status codes.
func (h *APIHandler) errorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrIndexOutOfRange), errors.Is(err, store.ErrUnknownBook):
		h.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, ledger.ErrQuoteUnavailable),
		errors.Is(err, store.ErrNoPendingTrade):
		h.jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
