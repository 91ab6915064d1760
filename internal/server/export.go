package server

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/rachitv/framl/backend/internal/domain"
)

func (h *APIHandlers) handleExportTransactionsJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	txs, err := h.service.ExportTransactions(r.Context())
	if err != nil {
		h.logger.Error("failed to export transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	respondJSON(w, http.StatusOK, exportResponse[domain.Transaction]{
		Data:  txs,
		Count: len(txs),
	})
}

func (h *APIHandlers) handleExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	txs, err := h.service.ExportTransactions(r.Context())
	if err != nil {
		h.logger.Error("failed to export transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	if len(txs) == 0 {
		writeError(w, http.StatusNotFound, "no transactions to export")
		return
	}

	header := []string{
		"id", "sender_id", "receiver_id", "amount", "currency",
		"timestamp", "status", "risk_score", "ip_address", "device_id",
	}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.ID,
			tx.SenderID,
			tx.ReceiverID,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Currency,
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.Status,
			strconv.FormatFloat(tx.RiskScore, 'f', -1, 64),
			tx.IPAddress,
			tx.DeviceID,
		})
	}

	writeCSV(w, "transactions_export.csv", header, rows)
}

func (h *APIHandlers) handleExportUsersCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	users, err := h.service.ExportUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to export users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export users")
		return
	}
	if len(users) == 0 {
		writeError(w, http.StatusNotFound, "no users to export")
		return
	}

	header := []string{"id", "name", "email", "phone", "address", "payment_method"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.ID, u.Name, u.Email, u.Phone, u.Address, u.PaymentMethod,
		})
	}

	writeCSV(w, "users_export.csv", header, rows)
}

type exportResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func writeCSV(w http.ResponseWriter, filename string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write(header)
	_ = writer.WriteAll(rows)
}
