package handlers

import (
	"time"

	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/services"

	"github.com/google/uuid"
)

// Inteiros grandes trafegam como texto decimal já escalado (10^18). Os campos
// *_display trazem o mesmo valor em unidades inteiras, só para exibição.

type AssetResponse struct {
	ID             uint64           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	AssetType      models.AssetType `json:"asset_type"`
	Value          string           `json:"value"`
	ValueDisplay   string           `json:"value_display"`
	Quantity       string           `json:"quantity"`
	MetadataHash   string           `json:"metadata_hash"`
	IsActive       bool             `json:"is_active"`
	IsVerified     bool             `json:"is_verified"`
	APYBasisPoints uint32           `json:"apy_basis_points"`
	Owner          string           `json:"owner"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func newAssetResponse(a models.Asset) AssetResponse {
	return AssetResponse{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		AssetType:      a.AssetType,
		Value:          a.Value.String(),
		ValueDisplay:   models.FormatUnits(a.Value),
		Quantity:       a.Quantity.String(),
		MetadataHash:   a.MetadataHash,
		IsActive:       a.IsActive,
		IsVerified:     a.IsVerified,
		APYBasisPoints: a.APYBasisPoints,
		Owner:          a.Owner.String(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type HoldingResponse struct {
	AssetID  uint64    `json:"asset_id"`
	Quantity string    `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

type PortfolioResponse struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IsPublic    bool              `json:"is_public"`
	IsVerified  bool              `json:"is_verified"`
	IsActive    bool              `json:"is_active"`
	Owner       string            `json:"owner"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Holdings    []HoldingResponse `json:"holdings"`
}

func newPortfolioResponse(p models.Portfolio) PortfolioResponse {
	holdings := make([]HoldingResponse, len(p.Holdings))
	for i, h := range p.Holdings {
		holdings[i] = HoldingResponse{AssetID: h.AssetID, Quantity: h.Quantity.String(), AddedAt: h.AddedAt}
	}
	return PortfolioResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsPublic:    p.IsPublic,
		IsVerified:  p.IsVerified,
		IsActive:    p.IsActive,
		Owner:       p.Owner.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Holdings:    holdings,
	}
}

// TransactionResponse omite o lado ausente de depósitos e saques.
type TransactionResponse struct {
	ID          uint64                 `json:"id"`
	Reference   uuid.UUID              `json:"reference"`
	FromAssetID *uint64                `json:"from_asset_id"`
	ToAssetID   *uint64                `json:"to_asset_id"`
	Amount      string                 `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description"`
	Caller      string                 `json:"caller"`
	CreatedAt   time.Time              `json:"created_at"`
}

func assetRef(id uint64) *uint64 {
	if id == models.NoAsset {
		return nil
	}
	return &id
}

func newTransactionResponse(tx models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Reference:   tx.Reference,
		FromAssetID: assetRef(tx.FromAssetID),
		ToAssetID:   assetRef(tx.ToAssetID),
		Amount:      tx.Amount.String(),
		Type:        tx.Type,
		Description: tx.Description,
		Caller:      tx.Caller.String(),
		CreatedAt:   tx.CreatedAt,
	}
}

func newTransactionResponses(txs []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = newTransactionResponse(tx)
	}
	return out
}

type QuoteResponse struct {
	AssetID               uint64 `json:"asset_id"`
	Amount                string `json:"amount"`
	UnitPrice             string `json:"unit_price"`
	Units                 string `json:"units"`
	UnitsDisplay          string `json:"units_display"`
	APYBasisPoints        uint32 `json:"apy_basis_points"`
	APYPercent            string `json:"apy_percent"`
	EstimatedAnnualReturn string `json:"estimated_annual_return"`
}

func newQuoteResponse(q services.Quote) QuoteResponse {
	return QuoteResponse{
		AssetID:               q.AssetID,
		Amount:                q.Amount.String(),
		UnitPrice:             q.UnitPrice.String(),
		Units:                 q.Units.String(),
		UnitsDisplay:          q.UnitsDisplay(),
		APYBasisPoints:        q.APYBasisPoints,
		APYPercent:            q.APYPercent(),
		EstimatedAnnualReturn: q.EstimatedAnnualReturn.String(),
	}
}

type ReceiptResponse struct {
	Quote         QuoteResponse `json:"quote"`
	PortfolioID   uint64        `json:"portfolio_id"`
	TransactionID uint64        `json:"transaction_id"`
	Reference     uuid.UUID     `json:"reference"`
}

type IDResponse struct {
	ID uint64 `json:"id"`
}

type AmountResponse struct {
	ID      uint64 `json:"id"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

type IDListResponse struct {
	Address string   `json:"address"`
	IDs     []uint64 `json:"ids"`
}

type StatsResponse struct {
	Assets       uint64 `json:"assets"`
	Portfolios   uint64 `json:"portfolios"`
	Transactions uint64 `json:"transactions"`
}
