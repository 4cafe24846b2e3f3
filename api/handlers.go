/*
handlers.go - HTTP API handlers for the cash-flow forecasting system

PURPOSE:
  Exposes transaction CRUD and the balance projection via REST. Handles
  HTTP request/response, JSON serialization, and delegates to the store and
  the forecast engine.

ENDPOINTS:
  Transactions:
    POST   /api/transactions            Create transaction
    GET    /api/transactions/{id}       Get transaction
    PUT    /api/transactions/{id}       Update transaction
    DELETE /api/transactions/{id}       Delete transaction

  Users:
    GET    /api/users/{id}/transactions List a user's transactions
    GET    /api/users/{id}/balance      Day-by-day balance projection
    POST   /api/users/{id}/borrow       Record a loan (income + expense pair)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, bad transaction configuration
  - 404: Transaction not found
  - 503: Transaction store unavailable (retryable)
  - 500: Everything else

SECURITY NOTE:
  Authentication is an external collaborator (upstream gateway). No auth
  middleware here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/forecast"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Projector *forecast.Projector
}

// NewHandler creates a new handler over the given store. Projections read
// the system clock.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:     store,
		Projector: forecast.NewProjector(store),
	}
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction creates a new transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}

	created, err := h.Store.Create(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// GetTransaction returns a single transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get transaction", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(*t))
}

// UpdateTransaction replaces an existing transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}

	updated, err := h.Store.Update(r.Context(), id, t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update transaction", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(*updated))
}

// DeleteTransaction removes a transaction.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// ListUserTransactions returns all transactions owned by a user.
func (h *Handler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	ts, err := h.Store.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTOs(ts))
}

// =============================================================================
// PROJECTION HANDLER
// =============================================================================

// GetUserBalance computes the day-by-day projection for a user and returns
// it as a JSON object keyed by MM-DD-YYYY, one entry per day in the window,
// in chronological key order.
func (h *Handler) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	fc, err := h.Projector.Project(r.Context(), userID)
	if err != nil {
		switch {
		case forecast.IsClientError(err):
			writeError(w, http.StatusBadRequest, "Invalid transaction data", err)
		case forecast.IsRetryable(err):
			writeError(w, http.StatusServiceUnavailable, "Transaction store unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to compute projection", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

// =============================================================================
// BORROW HANDLER
// =============================================================================

// BorrowMoney records a loan for the user: the borrowed amount as one-time
// income today, the amount to be returned as a one-time expense on the
// return date. Both rows are written atomically.
func (h *Handler) BorrowMoney(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	borrowed, err := decimal.NewFromString(req.AmountBorrowed)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_borrowed", err)
		return
	}
	toReturn, err := decimal.NewFromString(req.AmountToBeReturned)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_to_be_returned", err)
		return
	}
	if borrowed.IsNegative() || toReturn.IsNegative() {
		writeError(w, http.StatusBadRequest, "Loan amounts must be non-negative", nil)
		return
	}

	borrowDate, err := forecast.ParseDate(req.CurrentDate)
	if err != nil || borrowDate.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid current_date (use MM-DD-YYYY)", err)
		return
	}
	returnDate, err := forecast.ParseDate(req.DateOfReturn)
	if err != nil || returnDate.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid date_of_return (use MM-DD-YYYY)", err)
		return
	}

	pair, err := h.Store.Borrow(r.Context(), userID, borrowed, toReturn, borrowDate, returnDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTOs(pair))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
