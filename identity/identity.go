// Package identity normaliza os endereços de carteira usados como identidade
// dos chamadores. São aceitos endereços EVM (0x...) e chaves públicas Solana.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrEmpty   = errors.New("endereço vazio")
	ErrInvalid = errors.New("endereço inválido")
)

// Kind indica a rede de origem de um endereço.
type Kind int

const (
	KindUnknown Kind = iota
	KindEVM
	KindSolana
)

func (k Kind) String() string {
	switch k {
	case KindEVM:
		return "evm"
	case KindSolana:
		return "solana"
	default:
		return "unknown"
	}
}

// Address é a forma canônica de um endereço: EIP-55 para EVM, base58 para Solana.
// Dois endereços canônicos são a mesma identidade se e somente se forem iguais.
type Address string

// Parse valida o endereço e retorna sua forma canônica.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return "", fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		addr := common.HexToAddress(s)
		if addr == (common.Address{}) {
			return "", fmt.Errorf("%w: endereço zero", ErrInvalid)
		}
		return Address(addr.Hex()), nil
	}

	pubKey, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Address(pubKey.String()), nil
}

// MustParse é como Parse, mas entra em pânico em caso de erro. Uso em testes e constantes.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }

// IsZero indica ausência de identidade.
func (a Address) IsZero() bool { return a == "" }

func (a Address) Kind() Kind {
	switch {
	case a == "":
		return KindUnknown
	case strings.HasPrefix(string(a), "0x"):
		return KindEVM
	default:
		return KindSolana
	}
}
