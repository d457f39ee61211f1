package handlers

import (
	"net/http"

	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"
)

// TransactionHandler lida com o livro-razão de transações.
type TransactionHandler struct {
	Vault *vault.Store
}

func NewTransactionHandler(v *vault.Store) *TransactionHandler {
	return &TransactionHandler{Vault: v}
}

// Request struct para registrar uma transação. Omita from_asset_id em
// depósitos e to_asset_id em saques.
type executeTransactionRequest struct {
	FromAssetID *uint64                 `json:"from_asset_id"`
	ToAssetID   *uint64                 `json:"to_asset_id"`
	Amount      string                  `json:"amount" validate:"required"`
	Type        *models.TransactionType `json:"type" validate:"required"`
	Description string                  `json:"description" validate:"max=2000"`
}

// ExecuteTransaction registra uma transação.
// POST /transactions
func (h *TransactionHandler) ExecuteTransaction(w http.ResponseWriter, r *http.Request) {
	var req executeTransactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := amountField("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Vault.ExecuteTransaction(r.Context(), CallerFrom(r.Context()), vault.NewTransaction{
		FromAssetID: optionalAssetID(req.FromAssetID),
		ToAssetID:   optionalAssetID(req.ToAssetID),
		Amount:      amount,
		Type:        *req.Type,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.Vault.GetTransaction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(tx))
}

// GetTransactionByID obtém uma transação pelo ID.
// GET /transactions/{id}
func (h *TransactionHandler) GetTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := h.Vault.GetTransaction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}
