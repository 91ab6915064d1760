package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/graph"
	"github.com/rachitv/framl/backend/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.RelationshipService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.RelationshipService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createUser(w, r)
	case http.MethodGet:
		h.listUsers(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTransaction(w, r)
	case http.MethodGet:
		h.listTransactions(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := decodeJSON(r, &user); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.IngestUser(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to ingest user", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to persist user")
		return
	}

	respondJSON(w, http.StatusCreated, createdResponse{
		Message: "User created",
		ID:      user.ID,
	})
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := graph.ListUsersOptions{
		Search: query.Get("search"),
		Limit:  parseInt(query.Get("limit"), 50),
		Skip:   parseInt(query.Get("skip"), 0),
	}

	users, total, err := h.service.ListUsers(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	respondJSON(w, http.StatusOK, listResponse[domain.User]{
		Data:  users,
		Total: total,
	})
}

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.IngestTransaction(r.Context(), tx); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to ingest transaction", "error", err, "transaction_id", tx.ID)
		writeError(w, http.StatusInternalServerError, "failed to persist transaction")
		return
	}

	respondJSON(w, http.StatusCreated, createdResponse{
		Message: "Transaction created",
		ID:      tx.ID,
	})
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := graph.ListTransactionsOptions{
		Search:    query.Get("search"),
		Status:    query.Get("status"),
		SortField: graph.TxSortField(query.Get("sort_by")),
		Ascending: query.Get("order") == "asc",
		Limit:     parseInt(query.Get("limit"), 50),
		Skip:      parseInt(query.Get("skip"), 0),
	}

	if v := query.Get("min_amount"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_amount")
			return
		}
		opts.MinAmount = &val
	}
	if v := query.Get("max_amount"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_amount")
			return
		}
		opts.MaxAmount = &val
	}

	txs, total, err := h.service.ListTransactions(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	respondJSON(w, http.StatusOK, listResponse[domain.Transaction]{
		Data:  txs,
		Total: total,
	})
}

func (h *APIHandlers) handleUserConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/relationships/user/")
	userID = strings.Trim(userID, "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	conns, err := h.service.UserConnections(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch user connections", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to fetch user connections")
		return
	}

	respondJSON(w, http.StatusOK, userConnectionsResponse{
		UserID:      userID,
		Connections: conns,
	})
}

func (h *APIHandlers) handleTransactionConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	txID := strings.TrimPrefix(r.URL.Path, "/relationships/transaction/")
	txID = strings.Trim(txID, "/")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "transaction ID is required")
		return
	}

	conns, err := h.service.TransactionConnections(r.Context(), txID)
	if err != nil {
		h.logger.Error("failed to fetch transaction connections", "error", err, "transaction_id", txID)
		writeError(w, http.StatusInternalServerError, "failed to fetch transaction connections")
		return
	}

	respondJSON(w, http.StatusOK, transactionConnectionsResponse{
		TransactionID: txID,
		Connections:   conns,
	})
}

func (h *APIHandlers) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	sourceID := query.Get("user1_id")
	targetID := query.Get("user2_id")
	if sourceID == "" || targetID == "" {
		writeError(w, http.StatusBadRequest, "user1_id and user2_id are required")
		return
	}

	path, err := h.service.ShortestPath(r.Context(), sourceID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNoPath), errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "no path found between users")
		default:
			h.logger.Error("failed to compute shortest path", "error", err,
				"user1_id", sourceID, "user2_id", targetID)
			writeError(w, http.StatusInternalServerError, "failed to compute shortest path")
		}
		return
	}

	respondJSON(w, http.StatusOK, pathResponse{
		Path: path.NodeIDs,
		Hops: path.Hops,
	})
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// --- Request & Response DTOs ---

type createdResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type listResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

type userConnectionsResponse struct {
	UserID      string                 `json:"user_id"`
	Connections domain.UserConnections `json:"connections"`
}

type transactionConnectionsResponse struct {
	TransactionID string                        `json:"transaction_id"`
	Connections   domain.TransactionConnections `json:"connections"`
}

type pathResponse struct {
	Path []string `json:"path"`
	Hops int      `json:"hops"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
