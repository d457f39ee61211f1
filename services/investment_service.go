package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// basisPointsPerUnit converte pontos-base em fração (10000 bps = 100%).
var basisPointsPerUnit = big.NewInt(10_000)

// Vault é o subconjunto do cofre usado pelo serviço de investimento.
type Vault interface {
	GetAssetInfo(id uint64) (models.Asset, error)
	Invest(ctx context.Context, caller identity.Address, in vault.NewInvestment) (models.Transaction, error)
}

// InvestmentService calcula cotações e registra investimentos em ativos.
type InvestmentService struct {
	Vault         Vault
	MinInvestment *big.Int
	log           *zap.Logger
}

// NewInvestmentService cria o serviço. minInvestment nil equivale a zero.
func NewInvestmentService(v Vault, minInvestment *big.Int, logger *zap.Logger) *InvestmentService {
	if minInvestment == nil {
		minInvestment = new(big.Int)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvestmentService{Vault: v, MinInvestment: minInvestment, log: logger}
}

// Quote é a simulação de um investimento, com todos os valores na escala 10^18.
type Quote struct {
	AssetID               uint64
	Amount                *big.Int
	UnitPrice             *big.Int // Preço de uma unidade inteira do ativo
	Units                 *big.Int // Frações do ativo obtidas com Amount
	APYBasisPoints        uint32
	EstimatedAnnualReturn *big.Int
}

// UnitsDisplay retorna as unidades em formato decimal legível.
func (q Quote) UnitsDisplay() string {
	return models.FormatUnits(q.Units)
}

// APYPercent retorna o APY como percentual, ex: 850 bps -> "8.5".
func (q Quote) APYPercent() string {
	return decimal.New(int64(q.APYBasisPoints), -2).String()
}

// Quote simula o investimento de amount no ativo.
func (s *InvestmentService) Quote(assetID uint64, amount *big.Int) (Quote, error) {
	if !models.ValidAmount(amount) {
		return Quote{}, fmt.Errorf("%w: montante deve ser um inteiro não negativo", vault.ErrInvalidInput)
	}
	if amount.Cmp(s.MinInvestment) < 0 {
		return Quote{}, fmt.Errorf("%w: investimento mínimo é %s", vault.ErrInvalidInput, models.FormatUnits(s.MinInvestment))
	}

	asset, err := s.Vault.GetAssetInfo(assetID)
	if err != nil {
		return Quote{}, err
	}
	if !asset.IsActive {
		return Quote{}, fmt.Errorf("%w: ativo %d", vault.ErrInactiveRecord, assetID)
	}
	if asset.Quantity.Sign() == 0 {
		return Quote{}, fmt.Errorf("%w: ativo %d sem quantidade emitida", vault.ErrInvalidInput, assetID)
	}

	scale := models.ScaleFactor()
	unitPrice := new(big.Int).Mul(asset.Value, scale)
	unitPrice.Quo(unitPrice, asset.Quantity)
	if unitPrice.Sign() == 0 {
		return Quote{}, fmt.Errorf("%w: ativo %d sem preço unitário", vault.ErrInvalidInput, assetID)
	}

	units := new(big.Int).Mul(amount, scale)
	units.Quo(units, unitPrice)

	annualReturn := new(big.Int).Mul(amount, big.NewInt(int64(asset.APYBasisPoints)))
	annualReturn.Quo(annualReturn, basisPointsPerUnit)

	return Quote{
		AssetID:               assetID,
		Amount:                new(big.Int).Set(amount),
		UnitPrice:             unitPrice,
		Units:                 units,
		APYBasisPoints:        asset.APYBasisPoints,
		EstimatedAnnualReturn: annualReturn,
	}, nil
}

// Receipt é o comprovante de um investimento registrado.
type Receipt struct {
	Quote         Quote
	PortfolioID   uint64
	TransactionID uint64
	Reference     uuid.UUID
}

// Invest cota o investimento e registra, numa única operação do cofre, as
// unidades no portfólio do chamador e o depósito no ativo. Qualquer falha
// deixa o cofre como estava.
func (s *InvestmentService) Invest(ctx context.Context, caller identity.Address, portfolioID, assetID uint64, amount *big.Int) (Receipt, error) {
	quote, err := s.Quote(assetID, amount)
	if err != nil {
		return Receipt{}, err
	}
	if quote.Units.Sign() == 0 {
		return Receipt{}, fmt.Errorf("%w: montante insuficiente para uma fração do ativo %d", vault.ErrInvalidInput, assetID)
	}

	tx, err := s.Vault.Invest(ctx, caller, vault.NewInvestment{
		PortfolioID: portfolioID,
		AssetID:     assetID,
		Units:       quote.Units,
		Amount:      quote.Amount,
		Description: fmt.Sprintf("investimento no portfólio %d", portfolioID),
	})
	if err != nil {
		return Receipt{}, err
	}

	s.log.Info("investimento registrado",
		zap.String("caller", caller.String()),
		zap.Uint64("portfolio_id", portfolioID),
		zap.Uint64("asset_id", assetID),
		zap.String("amount", models.FormatUnits(quote.Amount)),
		zap.String("units", quote.UnitsDisplay()),
		zap.Stringer("reference", tx.Reference),
	)
	return Receipt{
		Quote:         quote,
		PortfolioID:   portfolioID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
	}, nil
}
