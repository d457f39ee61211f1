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

// NewPortfolio são os dados fornecidos pelo chamador ao criar um portfólio.
type NewPortfolio struct {
	Name        string
	Description string
	IsPublic    bool
}

// CreatePortfolio registra um portfólio vazio tendo o chamador como proprietário.
func (s *Store) CreatePortfolio(ctx context.Context, caller identity.Address, in NewPortfolio) (uint64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, fmt.Errorf("%w: nome do portfólio é obrigatório", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Description) == "" {
		return 0, fmt.Errorf("%w: descrição do portfólio é obrigatória", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	portfolio := models.Portfolio{
		ID:          s.nextPortfolioID,
		Name:        in.Name,
		Description: in.Description,
		IsPublic:    in.IsPublic,
		IsActive:    true,
		Owner:       caller,
		CreatedAt:   now,
		UpdatedAt:   now,
		Holdings:    []models.Holding{},
	}
	if err := s.persister.SavePortfolio(ctx, portfolio); err != nil {
		return 0, fmt.Errorf("falha ao persistir portfólio: %w", err)
	}

	s.portfolios[portfolio.ID] = &portfolio
	s.portfoliosByOwner[caller] = append(s.portfoliosByOwner[caller], portfolio.ID)
	s.nextPortfolioID++

	s.log.Debug("portfólio criado", zap.Uint64("portfolio_id", portfolio.ID), zap.String("owner", caller.String()))
	return portfolio.ID, nil
}

// AddAssetToPortfolio acrescenta uma participação ao portfólio. Quando quantity
// é nil, a participação é de uma unidade inteira do ativo.
func (s *Store) AddAssetToPortfolio(ctx context.Context, caller identity.Address, portfolioID, assetID uint64, quantity *big.Int) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if quantity == nil {
		quantity = models.ScaleFactor()
	}
	if !models.ValidAmount(quantity) {
		return fmt.Errorf("%w: quantidade deve ser um inteiro não negativo de até 256 bits", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.portfolios[portfolioID]
	if !ok {
		return fmt.Errorf("%w: portfólio %d", ErrNotFound, portfolioID)
	}
	asset, ok := s.assets[assetID]
	if !ok {
		return fmt.Errorf("%w: ativo %d", ErrNotFound, assetID)
	}
	if caller != current.Owner {
		return fmt.Errorf("%w: portfólio %d pertence a outro proprietário", ErrUnauthorized, portfolioID)
	}
	if !current.IsActive {
		return fmt.Errorf("%w: portfólio %d", ErrInactiveRecord, portfolioID)
	}
	if !asset.IsActive {
		return fmt.Errorf("%w: ativo %d", ErrInactiveRecord, assetID)
	}

	now := s.now()
	updated := current.Clone()
	updated.Holdings = append(updated.Holdings, models.Holding{
		AssetID:  assetID,
		Quantity: new(big.Int).Set(quantity),
		AddedAt:  now,
	})
	updated.UpdatedAt = now

	if err := s.persister.AppendHolding(ctx, updated); err != nil {
		return fmt.Errorf("falha ao persistir participação no portfólio %d: %w", portfolioID, err)
	}
	s.portfolios[portfolioID] = &updated

	s.log.Debug("ativo adicionado ao portfólio",
		zap.Uint64("portfolio_id", portfolioID),
		zap.Uint64("asset_id", assetID),
		zap.String("quantity", quantity.String()),
	)
	return nil
}

// GetPortfolioInfo retorna uma cópia do portfólio com suas participações.
func (s *Store) GetPortfolioInfo(id uint64) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, ok := s.portfolios[id]
	if !ok {
		return models.Portfolio{}, fmt.Errorf("%w: portfólio %d", ErrNotFound, id)
	}
	return portfolio.Clone(), nil
}

// GetPortfolioTotalValue soma valor × quantidade de cada participação, usando
// o valor atual dos ativos, e remove a escala uma única vez no final.
func (s *Store) GetPortfolioTotalValue(id uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, ok := s.portfolios[id]
	if !ok {
		return nil, fmt.Errorf("%w: portfólio %d", ErrNotFound, id)
	}

	total := new(big.Int)
	weighted := new(big.Int)
	for _, h := range portfolio.Holdings {
		weighted.Mul(s.assets[h.AssetID].Value, h.Quantity)
		total.Add(total, weighted)
	}
	return total.Quo(total, models.ScaleFactor()), nil
}

// GetUserPortfolios retorna os IDs dos portfólios do usuário em ordem de criação.
func (s *Store) GetUserPortfolios(owner identity.Address) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIDs(s.portfoliosByOwner[owner])
}

// ListPortfolios retorna os portfólios em ordem de ID. Com onlyPublic, os
// privados são omitidos.
func (s *Store) ListPortfolios(onlyPublic bool) []models.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Portfolio, 0, s.nextPortfolioID)
	for id := uint64(0); id < s.nextPortfolioID; id++ {
		p := s.portfolios[id]
		if onlyPublic && !p.IsPublic {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

func (s *Store) UpdatePortfolioDescription(ctx context.Context, caller identity.Address, id uint64, description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: descrição do portfólio é obrigatória", ErrInvalidInput)
	}
	return s.updatePortfolio(ctx, caller, id, s.portfolioOwnerOrVerifier(caller), func(p *models.Portfolio) {
		p.Description = description
	})
}

// VerifyPortfolio marca o portfólio como verificado. Restrito ao verificador.
func (s *Store) VerifyPortfolio(ctx context.Context, caller identity.Address, id uint64) error {
	return s.updatePortfolio(ctx, caller, id, func(*models.Portfolio) error {
		if caller != s.roles.Verifier {
			return fmt.Errorf("%w: apenas o verificador verifica portfólios", ErrUnauthorized)
		}
		return nil
	}, func(p *models.Portfolio) {
		p.IsVerified = true
	})
}

func (s *Store) DeactivatePortfolio(ctx context.Context, caller identity.Address, id uint64) error {
	return s.updatePortfolio(ctx, caller, id, s.portfolioOwnerOrVerifier(caller), func(p *models.Portfolio) {
		p.IsActive = false
	})
}

func (s *Store) portfolioOwnerOrVerifier(caller identity.Address) func(*models.Portfolio) error {
	return func(p *models.Portfolio) error {
		if caller != p.Owner && caller != s.roles.Verifier {
			return fmt.Errorf("%w: portfólio %d pertence a outro proprietário", ErrUnauthorized, p.ID)
		}
		return nil
	}
}

func (s *Store) updatePortfolio(
	ctx context.Context,
	caller identity.Address,
	id uint64,
	authorize func(*models.Portfolio) error,
	mutate func(*models.Portfolio),
) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.portfolios[id]
	if !ok {
		return fmt.Errorf("%w: portfólio %d", ErrNotFound, id)
	}
	if err := authorize(current); err != nil {
		return err
	}
	if !current.IsActive {
		return fmt.Errorf("%w: portfólio %d", ErrInactiveRecord, id)
	}

	updated := current.Clone()
	mutate(&updated)
	updated.UpdatedAt = s.now()

	if err := s.persister.SavePortfolio(ctx, updated); err != nil {
		return fmt.Errorf("falha ao persistir portfólio %d: %w", id, err)
	}
	s.portfolios[id] = &updated

	s.log.Debug("portfólio atualizado", zap.Uint64("portfolio_id", id), zap.String("caller", caller.String()))
	return nil
}
