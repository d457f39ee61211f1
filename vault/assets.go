package vault

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"

	"go.uber.org/zap"
)

// MaxAPYBasisPoints limita a anotação de rendimento a 1000% ao ano.
const MaxAPYBasisPoints = 100_000

// NewAsset são os dados fornecidos pelo chamador ao criar um ativo.
type NewAsset struct {
	Name         string
	Description  string
	AssetType    models.AssetType
	Value        *big.Int
	Quantity     *big.Int
	MetadataHash string
}

func (n NewAsset) validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: nome do ativo é obrigatório", ErrInvalidInput)
	}
	if strings.TrimSpace(n.Description) == "" {
		return fmt.Errorf("%w: descrição do ativo é obrigatória", ErrInvalidInput)
	}
	if !n.AssetType.Valid() {
		return fmt.Errorf("%w: tipo de ativo %d fora do conjunto", ErrInvalidInput, uint8(n.AssetType))
	}
	if !models.ValidAmount(n.Value) {
		return fmt.Errorf("%w: valor deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}
	if !models.ValidAmount(n.Quantity) {
		return fmt.Errorf("%w: quantidade deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}
	return nil
}

// CreateAsset registra um novo ativo tendo o chamador como proprietário.
// Qualquer identidade pode criar ativos.
func (s *Store) CreateAsset(ctx context.Context, caller identity.Address, in NewAsset) (uint64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}
	if err := in.validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	asset := models.Asset{
		ID:           s.nextAssetID,
		Name:         in.Name,
		Description:  in.Description,
		AssetType:    in.AssetType,
		Value:        new(big.Int).Set(in.Value),
		Quantity:     new(big.Int).Set(in.Quantity),
		MetadataHash: in.MetadataHash,
		IsActive:     true,
		IsVerified:   false,
		Owner:        caller,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.persister.SaveAsset(ctx, asset); err != nil {
		return 0, fmt.Errorf("falha ao persistir ativo: %w", err)
	}

	s.assets[asset.ID] = &asset
	s.assetsByOwner[caller] = append(s.assetsByOwner[caller], asset.ID)
	s.nextAssetID++

	s.log.Debug("ativo criado",
		zap.Uint64("asset_id", asset.ID),
		zap.String("owner", caller.String()),
		zap.Stringer("asset_type", asset.AssetType),
	)
	return asset.ID, nil
}

// GetAssetInfo retorna uma cópia do ativo, ativo ou não.
func (s *Store) GetAssetInfo(id uint64) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return models.Asset{}, fmt.Errorf("%w: ativo %d", ErrNotFound, id)
	}
	return asset.Clone(), nil
}

func (s *Store) GetAssetValue(id uint64) (*big.Int, error) {
	asset, err := s.GetAssetInfo(id)
	if err != nil {
		return nil, err
	}
	return asset.Value, nil
}

func (s *Store) GetAssetQuantity(id uint64) (*big.Int, error) {
	asset, err := s.GetAssetInfo(id)
	if err != nil {
		return nil, err
	}
	return asset.Quantity, nil
}

// GetUserAssets retorna os IDs dos ativos do usuário em ordem de criação.
func (s *Store) GetUserAssets(owner identity.Address) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIDs(s.assetsByOwner[owner])
}

// ListAssets retorna todos os ativos em ordem de ID.
func (s *Store) ListAssets() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Asset, 0, s.nextAssetID)
	for id := uint64(0); id < s.nextAssetID; id++ {
		out = append(out, s.assets[id].Clone())
	}
	return out
}

// SetAssetAPY anota a taxa de rendimento anual do ativo, em pontos-base.
// Restrito ao administrador da plataforma e ao avaliador de risco.
func (s *Store) SetAssetAPY(ctx context.Context, caller identity.Address, id uint64, apyBasisPoints uint32) error {
	if apyBasisPoints > MaxAPYBasisPoints {
		return fmt.Errorf("%w: APY de %d pontos-base acima do limite", ErrInvalidInput, apyBasisPoints)
	}
	return s.updateAsset(ctx, caller, id, func(a *models.Asset) error {
		if caller != s.roles.Owner && caller != s.roles.RiskAssessor {
			return fmt.Errorf("%w: apenas o administrador ou o avaliador de risco definem APY", ErrUnauthorized)
		}
		return nil
	}, func(a *models.Asset) {
		a.APYBasisPoints = apyBasisPoints
	})
}

// UpdateAssetDescription altera a descrição. Permitido ao proprietário e ao verificador.
func (s *Store) UpdateAssetDescription(ctx context.Context, caller identity.Address, id uint64, description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: descrição do ativo é obrigatória", ErrInvalidInput)
	}
	return s.updateAsset(ctx, caller, id, s.ownerOrVerifier(caller), func(a *models.Asset) {
		a.Description = description
	})
}

// UpdateAssetValue reavalia o ativo. Permitido ao proprietário e ao avaliador de risco.
func (s *Store) UpdateAssetValue(ctx context.Context, caller identity.Address, id uint64, value *big.Int) error {
	if !models.ValidAmount(value) {
		return fmt.Errorf("%w: valor deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}
	return s.updateAsset(ctx, caller, id, func(a *models.Asset) error {
		if caller != a.Owner && caller != s.roles.RiskAssessor {
			return fmt.Errorf("%w: apenas o proprietário ou o avaliador de risco reavaliam o ativo %d", ErrUnauthorized, a.ID)
		}
		return nil
	}, func(a *models.Asset) {
		a.Value = new(big.Int).Set(value)
	})
}

// VerifyAsset marca o ativo como verificado. Restrito ao verificador.
func (s *Store) VerifyAsset(ctx context.Context, caller identity.Address, id uint64) error {
	return s.updateAsset(ctx, caller, id, func(*models.Asset) error {
		if caller != s.roles.Verifier {
			return fmt.Errorf("%w: apenas o verificador verifica ativos", ErrUnauthorized)
		}
		return nil
	}, func(a *models.Asset) {
		a.IsVerified = true
	})
}

// DeactivateAsset leva o ativo ao estado inativo. Leituras continuam disponíveis.
func (s *Store) DeactivateAsset(ctx context.Context, caller identity.Address, id uint64) error {
	return s.updateAsset(ctx, caller, id, s.ownerOrVerifier(caller), func(a *models.Asset) {
		a.IsActive = false
	})
}

func (s *Store) ownerOrVerifier(caller identity.Address) func(*models.Asset) error {
	return func(a *models.Asset) error {
		if caller != a.Owner && caller != s.roles.Verifier {
			return fmt.Errorf("%w: ativo %d pertence a outro proprietário", ErrUnauthorized, a.ID)
		}
		return nil
	}
}

// updateAsset aplica mutate sobre uma cópia do ativo, persiste a cópia e só
// então a publica. Ativos inativos rejeitam qualquer mutação.
func (s *Store) updateAsset(
	ctx context.Context,
	caller identity.Address,
	id uint64,
	authorize func(*models.Asset) error,
	mutate func(*models.Asset),
) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("%w: ativo %d", ErrNotFound, id)
	}
	if err := authorize(current); err != nil {
		return err
	}
	if !current.IsActive {
		return fmt.Errorf("%w: ativo %d", ErrInactiveRecord, id)
	}

	updated := current.Clone()
	mutate(&updated)
	updated.UpdatedAt = s.now()

	if err := s.persister.SaveAsset(ctx, updated); err != nil {
		return fmt.Errorf("falha ao persistir ativo %d: %w", id, err)
	}
	s.assets[id] = &updated

	s.log.Debug("ativo atualizado", zap.Uint64("asset_id", id), zap.String("caller", caller.String()))
	return nil
}
