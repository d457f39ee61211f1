package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals é a quantidade de casas decimais da unidade base da plataforma.
const Decimals = 18

// MaxAmountBits limita valores e quantidades ao tamanho de um uint256.
const MaxAmountBits = 256

var scaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ScaleFactor retorna 10^18, a representação de uma unidade inteira.
func ScaleFactor() *big.Int {
	return new(big.Int).Set(scaleFactor)
}

// Units converte um número inteiro de unidades para a escala interna.
func Units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), scaleFactor)
}

// ParseAmount lê um inteiro decimal já escalado (ex: "100000000000000000000").
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("valor inteiro inválido: %q", s)
	}
	return v, nil
}

// ValidAmount indica se o valor é não negativo e cabe em 256 bits.
func ValidAmount(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= MaxAmountBits
}

// FormatUnits converte um valor escalado para a representação decimal legível.
// Ex: 1500000000000000000 -> "1.5"
func FormatUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -Decimals).String()
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
