package handlers

import (
	"net/http"

	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/services"
	"github.com/ferreirogomes/vaultrwa/vault"
)

// AssetHandler lida com requisições HTTP relacionadas a ativos.
type AssetHandler struct {
	Vault       *vault.Store
	Investments *services.InvestmentService
}

// NewAssetHandler cria uma nova instância do handler de ativos.
func NewAssetHandler(v *vault.Store, investments *services.InvestmentService) *AssetHandler {
	return &AssetHandler{Vault: v, Investments: investments}
}

type createAssetRequest struct {
	Name         string            `json:"name" validate:"required,max=200"`
	Description  string            `json:"description" validate:"required,max=2000"`
	AssetType    *models.AssetType `json:"asset_type" validate:"required"`
	Value        string            `json:"value" validate:"required"`
	Quantity     string            `json:"quantity" validate:"required"`
	MetadataHash string            `json:"metadata_hash" validate:"max=200"`
}

// CreateAsset cria um novo ativo.
// POST /assets
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	value, err := amountField("value", req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	quantity, err := amountField("quantity", req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Vault.CreateAsset(r.Context(), CallerFrom(r.Context()), vault.NewAsset{
		Name:         req.Name,
		Description:  req.Description,
		AssetType:    *req.AssetType,
		Value:        value,
		Quantity:     quantity,
		MetadataHash: req.MetadataHash,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// ListAssets lista todos os ativos em ordem de criação.
// GET /assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.Vault.ListAssets()
	out := make([]AssetResponse, len(assets))
	for i, a := range assets {
		out[i] = newAssetResponse(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetAssetByID obtém um ativo pelo ID.
// GET /assets/{id}
func (h *AssetHandler) GetAssetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	asset, err := h.Vault.GetAssetInfo(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

// GetAssetValue obtém o valor registrado do ativo.
// GET /assets/{id}/value
func (h *AssetHandler) GetAssetValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	value, err := h.Vault.GetAssetValue(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{ID: id, Amount: value.String(), Display: models.FormatUnits(value)})
}

// GetAssetQuantity obtém a quantidade fracionada do ativo.
// GET /assets/{id}/quantity
func (h *AssetHandler) GetAssetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	quantity, err := h.Vault.GetAssetQuantity(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{ID: id, Amount: quantity.String(), Display: models.FormatUnits(quantity)})
}

// GetAssetTransactions lista as transações que envolvem o ativo.
// GET /assets/{id}/transactions
func (h *AssetHandler) GetAssetTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	txs, err := h.Vault.GetAssetTransactions(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponses(txs))
}

type setAPYRequest struct {
	APYBasisPoints *uint32 `json:"apy_basis_points" validate:"required"`
}

// SetAssetAPY define a anotação de rendimento anual.
// PUT /assets/{id}/apy
func (h *AssetHandler) SetAssetAPY(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req setAPYRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, id, func() error {
		return h.Vault.SetAssetAPY(r.Context(), CallerFrom(r.Context()), id, *req.APYBasisPoints)
	})
}

type updateValueRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateAssetValue reavalia o ativo.
// PUT /assets/{id}/value
func (h *AssetHandler) UpdateAssetValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateValueRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	value, err := amountField("value", req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, id, func() error {
		return h.Vault.UpdateAssetValue(r.Context(), CallerFrom(r.Context()), id, value)
	})
}

type updateDescriptionRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
}

// UpdateAssetDescription troca a descrição do ativo.
// PUT /assets/{id}/description
func (h *AssetHandler) UpdateAssetDescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateDescriptionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, id, func() error {
		return h.Vault.UpdateAssetDescription(r.Context(), CallerFrom(r.Context()), id, req.Description)
	})
}

// VerifyAsset marca o ativo como verificado.
// POST /assets/{id}/verify
func (h *AssetHandler) VerifyAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, id, func() error {
		return h.Vault.VerifyAsset(r.Context(), CallerFrom(r.Context()), id)
	})
}

// DeactivateAsset desativa o ativo.
// POST /assets/{id}/deactivate
func (h *AssetHandler) DeactivateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, id, func() error {
		return h.Vault.DeactivateAsset(r.Context(), CallerFrom(r.Context()), id)
	})
}

type quoteRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// QuoteInvestment simula um investimento no ativo sem registrar nada.
// POST /assets/{id}/quote
func (h *AssetHandler) QuoteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req quoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := amountField("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	quote, err := h.Investments.Quote(id, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

// mutate aplica a alteração e responde com o ativo atualizado.
func (h *AssetHandler) mutate(w http.ResponseWriter, r *http.Request, id uint64, apply func() error) {
	if err := apply(); err != nil {
		writeError(w, err)
		return
	}
	asset, err := h.Vault.GetAssetInfo(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}
