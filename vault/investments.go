package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"

	"go.uber.org/zap"
)

// NewInvestment descreve a compra de Units frações de um ativo por Amount,
// registrada no portfólio do chamador.
type NewInvestment struct {
	PortfolioID uint64
	AssetID     uint64
	Units       *big.Int
	Amount      *big.Int
	Description string
}

// Invest acrescenta a participação ao portfólio e registra o depósito
// correspondente no ativo. As duas escritas são gravadas juntas pelo
// Persister; se ele falhar, nenhuma delas é aplicada.
func (s *Store) Invest(ctx context.Context, caller identity.Address, in NewInvestment) (models.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return models.Transaction{}, err
	}
	if !models.ValidAmount(in.Units) || in.Units.Sign() == 0 {
		return models.Transaction{}, fmt.Errorf("%w: unidades devem ser um inteiro positivo de até 256 bits", ErrInvalidInput)
	}
	if !models.ValidAmount(in.Amount) {
		return models.Transaction{}, fmt.Errorf("%w: montante deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.portfolios[in.PortfolioID]
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: portfólio %d", ErrNotFound, in.PortfolioID)
	}
	asset, ok := s.assets[in.AssetID]
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: ativo %d", ErrNotFound, in.AssetID)
	}
	if caller != current.Owner {
		return models.Transaction{}, fmt.Errorf("%w: portfólio %d pertence a outro proprietário", ErrUnauthorized, in.PortfolioID)
	}
	if !current.IsActive {
		return models.Transaction{}, fmt.Errorf("%w: portfólio %d", ErrInactiveRecord, in.PortfolioID)
	}
	if !asset.IsActive {
		return models.Transaction{}, fmt.Errorf("%w: ativo %d", ErrInactiveRecord, in.AssetID)
	}

	now := s.now()
	updated := current.Clone()
	updated.Holdings = append(updated.Holdings, models.Holding{
		AssetID:  in.AssetID,
		Quantity: new(big.Int).Set(in.Units),
		AddedAt:  now,
	})
	updated.UpdatedAt = now

	tx := models.Transaction{
		ID:          s.nextTransactionID,
		Reference:   s.newRef(),
		FromAssetID: models.NoAsset,
		ToAssetID:   in.AssetID,
		Amount:      new(big.Int).Set(in.Amount),
		Type:        models.Deposit,
		Description: in.Description,
		Caller:      caller,
		CreatedAt:   now,
	}

	if err := s.persister.RecordInvestment(ctx, updated, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("falha ao persistir investimento no portfólio %d: %w", in.PortfolioID, err)
	}

	s.portfolios[in.PortfolioID] = &updated
	s.transactions[tx.ID] = &tx
	s.indexTransaction(&tx)
	s.nextTransactionID++

	s.log.Debug("investimento registrado",
		zap.Uint64("portfolio_id", in.PortfolioID),
		zap.Uint64("asset_id", in.AssetID),
		zap.Uint64("transaction_id", tx.ID),
		zap.String("units", in.Units.String()),
	)
	return tx.Clone(), nil
}
