package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
)

// AssetType classifica o ativo do mundo real que foi tokenizado.
type AssetType uint8

const (
	RealEstate AssetType = iota
	Bonds
	Crypto
	Stock
	Commodity
)

var assetTypeNames = [...]string{
	RealEstate: "real_estate",
	Bonds:      "bonds",
	Crypto:     "crypto",
	Stock:      "stock",
	Commodity:  "commodity",
}

// Valid indica se o tipo pertence ao conjunto enumerado.
func (t AssetType) Valid() bool {
	return int(t) < len(assetTypeNames)
}

func (t AssetType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("asset_type(%d)", uint8(t))
	}
	return assetTypeNames[t]
}

// ParseAssetType converte o nome textual ("real_estate", "bonds", ...) no tipo.
func ParseAssetType(s string) (AssetType, error) {
	for i, name := range assetTypeNames {
		if name == s {
			return AssetType(i), nil
		}
	}
	return 0, fmt.Errorf("tipo de ativo desconhecido: %q", s)
}

func (t AssetType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de ativo inválido: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *AssetType) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Asset representa um ativo do mundo real fracionado e registrado no cofre.
// Value e Quantity usam ponto fixo com 18 casas decimais.
type Asset struct {
	ID             uint64           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	AssetType      AssetType        `json:"asset_type"`
	Value          *big.Int         `json:"value"`
	Quantity       *big.Int         `json:"quantity"`
	MetadataHash   string           `json:"metadata_hash"` // Ex: hash IPFS do documento do ativo
	IsActive       bool             `json:"is_active"`
	IsVerified     bool             `json:"is_verified"`
	APYBasisPoints uint32           `json:"apy_basis_points"`
	Owner          identity.Address `json:"owner"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Clone retorna uma cópia que não compartilha os inteiros grandes.
func (a Asset) Clone() Asset {
	a.Value = cloneInt(a.Value)
	a.Quantity = cloneInt(a.Quantity)
	return a
}
