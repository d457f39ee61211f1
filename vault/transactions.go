package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"

	"go.uber.org/zap"
)

// NewTransaction descreve uma movimentação a registrar. Use models.NoAsset no
// lado ausente de depósitos (origem) e saques (destino).
type NewTransaction struct {
	FromAssetID uint64
	ToAssetID   uint64
	Amount      *big.Int
	Type        models.TransactionType
	Description string
}

// ExecuteTransaction registra a movimentação no livro-razão e retorna seu ID.
// As participações dos portfólios não são alteradas.
func (s *Store) ExecuteTransaction(ctx context.Context, caller identity.Address, in NewTransaction) (uint64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}
	if !in.Type.Valid() {
		return 0, fmt.Errorf("%w: tipo de transação %d fora do conjunto", ErrInvalidInput, uint8(in.Type))
	}
	if !models.ValidAmount(in.Amount) {
		return 0, fmt.Errorf("%w: montante deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}

	var referenced []uint64
	switch in.Type {
	case models.Deposit:
		if in.FromAssetID != models.NoAsset || in.ToAssetID == models.NoAsset {
			return 0, fmt.Errorf("%w: depósito exige apenas o ativo de destino", ErrInvalidInput)
		}
		referenced = []uint64{in.ToAssetID}
	case models.Withdrawal:
		if in.FromAssetID == models.NoAsset || in.ToAssetID != models.NoAsset {
			return 0, fmt.Errorf("%w: saque exige apenas o ativo de origem", ErrInvalidInput)
		}
		referenced = []uint64{in.FromAssetID}
	case models.Transfer:
		if in.FromAssetID == models.NoAsset || in.ToAssetID == models.NoAsset {
			return 0, fmt.Errorf("%w: transferência exige ativos de origem e destino", ErrInvalidInput)
		}
		if in.FromAssetID == in.ToAssetID {
			return 0, fmt.Errorf("%w: transferência para o mesmo ativo", ErrInvalidInput)
		}
		referenced = []uint64{in.FromAssetID, in.ToAssetID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range referenced {
		asset, ok := s.assets[id]
		if !ok {
			return 0, fmt.Errorf("%w: ativo %d", ErrNotFound, id)
		}
		if !asset.IsActive {
			return 0, fmt.Errorf("%w: ativo %d", ErrInactiveRecord, id)
		}
	}

	tx := models.Transaction{
		ID:          s.nextTransactionID,
		Reference:   s.newRef(),
		FromAssetID: in.FromAssetID,
		ToAssetID:   in.ToAssetID,
		Amount:      new(big.Int).Set(in.Amount),
		Type:        in.Type,
		Description: in.Description,
		Caller:      caller,
		CreatedAt:   s.now(),
	}
	if err := s.persister.SaveTransaction(ctx, tx); err != nil {
		return 0, fmt.Errorf("falha ao persistir transação: %w", err)
	}

	s.transactions[tx.ID] = &tx
	s.indexTransaction(&tx)
	s.nextTransactionID++

	s.log.Debug("transação registrada",
		zap.Uint64("transaction_id", tx.ID),
		zap.Stringer("type", tx.Type),
		zap.String("amount", tx.Amount.String()),
		zap.Stringer("reference", tx.Reference),
	)
	return tx.ID, nil
}

func (s *Store) indexTransaction(tx *models.Transaction) {
	if tx.FromAssetID != models.NoAsset {
		s.txByAsset[tx.FromAssetID] = append(s.txByAsset[tx.FromAssetID], tx.ID)
	}
	if tx.ToAssetID != models.NoAsset && tx.ToAssetID != tx.FromAssetID {
		s.txByAsset[tx.ToAssetID] = append(s.txByAsset[tx.ToAssetID], tx.ID)
	}
}

func (s *Store) GetTransaction(id uint64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: transação %d", ErrNotFound, id)
	}
	return tx.Clone(), nil
}

// GetAssetTransactions retorna as transações que movimentam o ativo, em ordem de ID.
func (s *Store) GetAssetTransactions(assetID uint64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[assetID]; !ok {
		return nil, fmt.Errorf("%w: ativo %d", ErrNotFound, assetID)
	}
	ids := s.txByAsset[assetID]
	out := make([]models.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.transactions[id].Clone())
	}
	return out, nil
}
