// Package vault implementa o cofre de registros de ativos e portfólios.
//
// O Store é a fonte autoritativa do estado: todas as operações são
// serializadas por um único mutex, e cada mutação é gravada no Persister
// antes de ser aplicada em memória.
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Roles identifica as contas privilegiadas definidas na implantação.
type Roles struct {
	Owner        identity.Address // Administrador da plataforma
	Verifier     identity.Address // Verifica ativos e portfólios
	RiskAssessor identity.Address // Ajusta APY e avaliações de valor
}

// Store mantém as tabelas de ativos, portfólios e transações.
type Store struct {
	mu sync.Mutex

	roles     Roles
	persister Persister
	now       func() time.Time
	newRef    func() uuid.UUID
	log       *zap.Logger

	assets       map[uint64]*models.Asset
	portfolios   map[uint64]*models.Portfolio
	transactions map[uint64]*models.Transaction

	nextAssetID       uint64
	nextPortfolioID   uint64
	nextTransactionID uint64

	assetsByOwner     map[identity.Address][]uint64
	portfoliosByOwner map[identity.Address][]uint64
	txByAsset         map[uint64][]uint64
}

// Option configura um Store.
type Option func(*Store)

// WithPersister define o armazenamento durável. Sem ele o cofre vive só em memória.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock substitui o relógio usado nos carimbos de data.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithReferenceGenerator substitui o gerador de referências de transação.
func WithReferenceGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newRef = gen }
}

// New cria um cofre vazio com os papéis informados.
func New(roles Roles, opts ...Option) *Store {
	s := &Store{
		roles:     roles,
		persister: memoryOnly{},
		now:       func() time.Time { return time.Now().UTC() },
		newRef:    uuid.New,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.assets = make(map[uint64]*models.Asset)
	s.portfolios = make(map[uint64]*models.Portfolio)
	s.transactions = make(map[uint64]*models.Transaction)
	s.assetsByOwner = make(map[identity.Address][]uint64)
	s.portfoliosByOwner = make(map[identity.Address][]uint64)
	s.txByAsset = make(map[uint64][]uint64)
	s.nextAssetID, s.nextPortfolioID, s.nextTransactionID = 0, 0, 0
}

// Roles retorna os papéis configurados.
func (s *Store) Roles() Roles {
	return s.roles
}

// Load substitui o estado em memória pelo snapshot do Persister.
// Os IDs do snapshot devem ser contíguos a partir de zero. Um snapshot
// inconsistente é rejeitado por inteiro e o estado atual é mantido.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.persister.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("falha ao carregar snapshot do cofre: %w", err)
	}

	fresh := &Store{}
	fresh.reset()
	if err := fresh.fill(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets, s.portfolios, s.transactions = fresh.assets, fresh.portfolios, fresh.transactions
	s.assetsByOwner, s.portfoliosByOwner, s.txByAsset = fresh.assetsByOwner, fresh.portfoliosByOwner, fresh.txByAsset
	s.nextAssetID, s.nextPortfolioID, s.nextTransactionID = fresh.nextAssetID, fresh.nextPortfolioID, fresh.nextTransactionID

	s.log.Info("cofre carregado",
		zap.Uint64("assets", s.nextAssetID),
		zap.Uint64("portfolios", s.nextPortfolioID),
		zap.Uint64("transactions", s.nextTransactionID),
	)
	return nil
}

// fill popula um Store recém-zerado a partir do snapshot.
func (s *Store) fill(snap Snapshot) error {
	for i, a := range snap.Assets {
		if a.ID != uint64(i) {
			return fmt.Errorf("snapshot inconsistente: ativo %d na posição %d", a.ID, i)
		}
		asset := a.Clone()
		s.assets[asset.ID] = &asset
		s.assetsByOwner[asset.Owner] = append(s.assetsByOwner[asset.Owner], asset.ID)
	}
	s.nextAssetID = uint64(len(snap.Assets))

	for i, p := range snap.Portfolios {
		if p.ID != uint64(i) {
			return fmt.Errorf("snapshot inconsistente: portfólio %d na posição %d", p.ID, i)
		}
		portfolio := p.Clone()
		for _, h := range portfolio.Holdings {
			if _, ok := s.assets[h.AssetID]; !ok {
				return fmt.Errorf("snapshot inconsistente: portfólio %d referencia ativo %d inexistente", p.ID, h.AssetID)
			}
		}
		s.portfolios[portfolio.ID] = &portfolio
		s.portfoliosByOwner[portfolio.Owner] = append(s.portfoliosByOwner[portfolio.Owner], portfolio.ID)
	}
	s.nextPortfolioID = uint64(len(snap.Portfolios))

	for i, t := range snap.Transactions {
		if t.ID != uint64(i) {
			return fmt.Errorf("snapshot inconsistente: transação %d na posição %d", t.ID, i)
		}
		tx := t.Clone()
		s.transactions[tx.ID] = &tx
		s.indexTransaction(&tx)
	}
	s.nextTransactionID = uint64(len(snap.Transactions))
	return nil
}

// GetAssetCount retorna quantos ativos já foram criados.
func (s *Store) GetAssetCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAssetID
}

// GetPortfolioCount retorna quantos portfólios já foram criados.
func (s *Store) GetPortfolioCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextPortfolioID
}

func (s *Store) GetTransactionCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextTransactionID
}

func requireCaller(caller identity.Address) error {
	if caller.IsZero() {
		return fmt.Errorf("%w: chamador sem identidade", ErrUnauthorized)
	}
	return nil
}

func copyIDs(ids []uint64) []uint64 {
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}
