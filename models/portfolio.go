package models

import (
	"math/big"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
)

// Holding é a participação de um portfólio em um ativo.
type Holding struct {
	AssetID  uint64    `json:"asset_id"`
	Quantity *big.Int  `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// Portfolio agrupa participações em ativos de um único proprietário.
type Portfolio struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	IsPublic    bool             `json:"is_public"`
	IsVerified  bool             `json:"is_verified"`
	IsActive    bool             `json:"is_active"`
	Owner       identity.Address `json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Holdings    []Holding        `json:"holdings"`
}

// Clone retorna uma cópia profunda, incluindo as participações.
func (p Portfolio) Clone() Portfolio {
	holdings := make([]Holding, len(p.Holdings))
	for i, h := range p.Holdings {
		h.Quantity = cloneInt(h.Quantity)
		holdings[i] = h
	}
	p.Holdings = holdings
	return p
}
