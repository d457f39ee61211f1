package vault

import (
	"context"

	"github.com/ferreirogomes/vaultrwa/models"
)

// Persister é o armazenamento durável por trás do cofre. O Store chama os
// métodos de escrita sob seu lock, antes de aplicar a mudança em memória.
type Persister interface {
	SaveAsset(ctx context.Context, asset models.Asset) error
	SavePortfolio(ctx context.Context, portfolio models.Portfolio) error
	// AppendHolding grava a última participação de portfolio e atualiza seu cabeçalho.
	AppendHolding(ctx context.Context, portfolio models.Portfolio) error
	SaveTransaction(ctx context.Context, tx models.Transaction) error
	// RecordInvestment grava, de forma atômica, a última participação de
	// portfolio e a transação de depósito que a acompanha.
	RecordInvestment(ctx context.Context, portfolio models.Portfolio, tx models.Transaction) error
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot é o estado completo do cofre, ordenado por ID.
type Snapshot struct {
	Assets       []models.Asset
	Portfolios   []models.Portfolio
	Transactions []models.Transaction
}

// memoryOnly mantém o cofre apenas em memória.
type memoryOnly struct{}

func (memoryOnly) SaveAsset(context.Context, models.Asset) error             { return nil }
func (memoryOnly) SavePortfolio(context.Context, models.Portfolio) error     { return nil }
func (memoryOnly) AppendHolding(context.Context, models.Portfolio) error     { return nil }
func (memoryOnly) SaveTransaction(context.Context, models.Transaction) error { return nil }
func (memoryOnly) LoadSnapshot(context.Context) (Snapshot, error)            { return Snapshot{}, nil }

func (memoryOnly) RecordInvestment(context.Context, models.Portfolio, models.Transaction) error {
	return nil
}
