package models

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/google/uuid"
)

// NoAsset marca o lado ausente de um depósito ou saque.
const NoAsset uint64 = math.MaxUint64

// TransactionType define a natureza de uma movimentação no livro-razão.
type TransactionType uint8

const (
	Deposit TransactionType = iota
	Withdrawal
	Transfer
)

var transactionTypeNames = [...]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Transfer:   "transfer",
}

func (t TransactionType) Valid() bool {
	return int(t) < len(transactionTypeNames)
}

func (t TransactionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("transaction_type(%d)", uint8(t))
	}
	return transactionTypeNames[t]
}

// ParseTransactionType converte "deposit", "withdrawal" ou "transfer" no tipo.
func ParseTransactionType(s string) (TransactionType, error) {
	for i, name := range transactionTypeNames {
		if name == s {
			return TransactionType(i), nil
		}
	}
	return 0, fmt.Errorf("tipo de transação desconhecido: %q", s)
}

func (t TransactionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de transação inválido: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	parsed, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction registra uma movimentação entre ativos (ou de/para fora do cofre).
type Transaction struct {
	ID          uint64           `json:"id"`
	Reference   uuid.UUID        `json:"reference"` // Identificador externo exibido ao investidor
	FromAssetID uint64           `json:"from_asset_id"`
	ToAssetID   uint64           `json:"to_asset_id"`
	Amount      *big.Int         `json:"amount"`
	Type        TransactionType  `json:"type"`
	Description string           `json:"description"`
	Caller      identity.Address `json:"caller"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Touches indica se a transação movimenta o ativo informado.
func (t Transaction) Touches(assetID uint64) bool {
	return t.FromAssetID == assetID || t.ToAssetID == assetID
}

func (t Transaction) Clone() Transaction {
	t.Amount = cloneInt(t.Amount)
	return t
}
