package handlers

import (
	"net/http"

	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/services"
	"github.com/ferreirogomes/vaultrwa/vault"
)

// PortfolioHandler lida com requisições HTTP relacionadas a portfólios.
type PortfolioHandler struct {
	Vault       *vault.Store
	Investments *services.InvestmentService
}

func NewPortfolioHandler(v *vault.Store, investments *services.InvestmentService) *PortfolioHandler {
	return &PortfolioHandler{Vault: v, Investments: investments}
}

type createPortfolioRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	IsPublic    bool   `json:"is_public"`
}

// CreatePortfolio cria um portfólio vazio.
// POST /portfolios
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.Vault.CreatePortfolio(r.Context(), CallerFrom(r.Context()), vault.NewPortfolio{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// ListPortfolios lista os portfólios. Com ?public=true, apenas os públicos.
// GET /portfolios
func (h *PortfolioHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	onlyPublic := r.URL.Query().Get("public") == "true"
	portfolios := h.Vault.ListPortfolios(onlyPublic)
	out := make([]PortfolioResponse, len(portfolios))
	for i, p := range portfolios {
		out[i] = newPortfolioResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPortfolioByID obtém um portfólio e suas participações.
// GET /portfolios/{id}
func (h *PortfolioHandler) GetPortfolioByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	portfolio, err := h.Vault.GetPortfolioInfo(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPortfolioResponse(portfolio))
}

// GetPortfolioValue calcula o valor total do portfólio.
// GET /portfolios/{id}/value
func (h *PortfolioHandler) GetPortfolioValue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.Vault.GetPortfolioTotalValue(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{ID: id, Amount: total.String(), Display: models.FormatUnits(total)})
}

type addAssetRequest struct {
	AssetID  *uint64 `json:"asset_id" validate:"required"`
	Quantity string  `json:"quantity"` // Vazio equivale a uma unidade inteira
}

// AddAsset adiciona uma participação ao portfólio.
// POST /portfolios/{id}/assets
func (h *PortfolioHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req addAssetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	quantity, err := optionalAmountField("quantity", req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Vault.AddAssetToPortfolio(r.Context(), CallerFrom(r.Context()), id, *req.AssetID, quantity); err != nil {
		writeError(w, err)
		return
	}
	h.respondPortfolio(w, id)
}

type investRequest struct {
	AssetID *uint64 `json:"asset_id" validate:"required"`
	Amount  string  `json:"amount" validate:"required"`
}

// Invest compra frações de um ativo para o portfólio.
// POST /portfolios/{id}/invest
func (h *PortfolioHandler) Invest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req investRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := amountField("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.Investments.Invest(r.Context(), CallerFrom(r.Context()), id, *req.AssetID, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReceiptResponse{
		Quote:         newQuoteResponse(receipt.Quote),
		PortfolioID:   receipt.PortfolioID,
		TransactionID: receipt.TransactionID,
		Reference:     receipt.Reference,
	})
}

// UpdatePortfolioDescription troca a descrição do portfólio.
// PUT /portfolios/{id}/description
func (h *PortfolioHandler) UpdatePortfolioDescription(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Vault.UpdatePortfolioDescription(r.Context(), CallerFrom(r.Context()), id, req.Description); err != nil {
		writeError(w, err)
		return
	}
	h.respondPortfolio(w, id)
}

// VerifyPortfolio marca o portfólio como verificado.
// POST /portfolios/{id}/verify
func (h *PortfolioHandler) VerifyPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Vault.VerifyPortfolio(r.Context(), CallerFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	h.respondPortfolio(w, id)
}

// DeactivatePortfolio desativa o portfólio.
// POST /portfolios/{id}/deactivate
func (h *PortfolioHandler) DeactivatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Vault.DeactivatePortfolio(r.Context(), CallerFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	h.respondPortfolio(w, id)
}

func (h *PortfolioHandler) respondPortfolio(w http.ResponseWriter, id uint64) {
	portfolio, err := h.Vault.GetPortfolioInfo(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPortfolioResponse(portfolio))
}
