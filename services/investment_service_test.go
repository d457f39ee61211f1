package services_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/services"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVault é uma implementação mock do services.Vault
type MockVault struct {
	mock.Mock
}

func (m *MockVault) GetAssetInfo(id uint64) (models.Asset, error) {
	args := m.Called(id)
	return args.Get(0).(models.Asset), args.Error(1)
}

func (m *MockVault) Invest(ctx context.Context, caller identity.Address, in vault.NewInvestment) (models.Transaction, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(models.Transaction), args.Error(1)
}

var investor = identity.MustParse("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")

// 1000 unidades valendo 500 no total, ou seja, 0.5 por unidade, com APY de 8.5%.
func greenBond() models.Asset {
	return models.Asset{
		ID:             4,
		Name:           "Green Energy Bonds",
		AssetType:      models.Bonds,
		Value:          models.Units(500),
		Quantity:       models.Units(1000),
		IsActive:       true,
		APYBasisPoints: 850,
	}
}

func TestQuote(t *testing.T) {
	mockVault := new(MockVault)
	svc := services.NewInvestmentService(mockVault, nil, nil)

	mockVault.On("GetAssetInfo", uint64(4)).Return(greenBond(), nil)

	q, err := svc.Quote(4, models.Units(100))
	require.NoError(t, err)

	assert.Equal(t, "0.5", models.FormatUnits(q.UnitPrice))
	assert.Equal(t, 0, models.Units(200).Cmp(q.Units))
	assert.Equal(t, "200", q.UnitsDisplay())
	assert.Equal(t, "8.5", q.APYPercent())
	assert.Equal(t, "8.5", models.FormatUnits(q.EstimatedAnnualReturn))
	mockVault.AssertExpectations(t)
}

func TestQuoteRejections(t *testing.T) {
	minimum, err := models.ParseAmount("28600000000000000")
	require.NoError(t, err)

	inactive := greenBond()
	inactive.IsActive = false
	empty := greenBond()
	empty.Quantity = new(big.Int)
	worthless := greenBond()
	worthless.Value = new(big.Int)

	mockVault := new(MockVault)
	mockVault.On("GetAssetInfo", uint64(1)).Return(inactive, nil)
	mockVault.On("GetAssetInfo", uint64(2)).Return(empty, nil)
	mockVault.On("GetAssetInfo", uint64(3)).Return(worthless, nil)
	mockVault.On("GetAssetInfo", uint64(9)).Return(models.Asset{}, vault.ErrNotFound)
	svc := services.NewInvestmentService(mockVault, minimum, nil)

	cases := map[string]struct {
		assetID uint64
		amount  *big.Int
		want    error
	}{
		"abaixo do mínimo":  {4, big.NewInt(1), vault.ErrInvalidInput},
		"montante negativo": {4, big.NewInt(-5), vault.ErrInvalidInput},
		"montante ausente":  {4, nil, vault.ErrInvalidInput},
		"ativo inativo":     {1, models.Units(1), vault.ErrInactiveRecord},
		"sem quantidade":    {2, models.Units(1), vault.ErrInvalidInput},
		"sem preço":         {3, models.Units(1), vault.ErrInvalidInput},
		"ativo inexistente": {9, models.Units(1), vault.ErrNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Quote(tc.assetID, tc.amount)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInvest(t *testing.T) {
	mockVault := new(MockVault)
	svc := services.NewInvestmentService(mockVault, nil, nil)
	ctx := context.Background()
	ref := uuid.MustParse("0b6c1f0e-4c1a-4f43-9c41-0f5a5d2f7e01")

	mockVault.On("GetAssetInfo", uint64(4)).Return(greenBond(), nil)
	mockVault.On("Invest", ctx, investor, mock.MatchedBy(func(in vault.NewInvestment) bool {
		return in.PortfolioID == 2 &&
			in.AssetID == 4 &&
			in.Units.Cmp(models.Units(20)) == 0 &&
			in.Amount.Cmp(models.Units(10)) == 0 &&
			in.Description == "investimento no portfólio 2"
	})).Return(models.Transaction{ID: 7, Reference: ref}, nil).Once()

	receipt, err := svc.Invest(ctx, investor, 2, 4, models.Units(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), receipt.TransactionID)
	assert.Equal(t, uint64(2), receipt.PortfolioID)
	assert.Equal(t, ref, receipt.Reference)
	mockVault.AssertExpectations(t)
}

func TestInvestStopsOnQuoteFailure(t *testing.T) {
	mockVault := new(MockVault)
	svc := services.NewInvestmentService(mockVault, nil, nil)
	ctx := context.Background()

	pricey := greenBond()
	pricey.Value = models.Units(1_000_000_000_000)
	mockVault.On("GetAssetInfo", uint64(4)).Return(pricey, nil)

	// Um wei não compra nenhuma fração de uma unidade tão cara.
	_, err := svc.Invest(ctx, investor, 2, 4, big.NewInt(1))
	assert.ErrorIs(t, err, vault.ErrInvalidInput)
	mockVault.AssertNotCalled(t, "Invest", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvestPropagatesVaultError(t *testing.T) {
	mockVault := new(MockVault)
	svc := services.NewInvestmentService(mockVault, nil, nil)
	ctx := context.Background()

	mockVault.On("GetAssetInfo", uint64(4)).Return(greenBond(), nil)
	mockVault.On("Invest", ctx, investor, mock.Anything).Return(models.Transaction{}, vault.ErrUnauthorized).Once()

	_, err := svc.Invest(ctx, investor, 2, 4, models.Units(10))
	assert.ErrorIs(t, err, vault.ErrUnauthorized)
	mockVault.AssertExpectations(t)
}

// failingInvestments aceita tudo, exceto a gravação conjunta do investimento.
type failingInvestments struct {
	noopPersister
	err error
}

func (f failingInvestments) RecordInvestment(context.Context, models.Portfolio, models.Transaction) error {
	return f.err
}

type noopPersister struct{}

func (noopPersister) SaveAsset(context.Context, models.Asset) error             { return nil }
func (noopPersister) SavePortfolio(context.Context, models.Portfolio) error     { return nil }
func (noopPersister) AppendHolding(context.Context, models.Portfolio) error     { return nil }
func (noopPersister) SaveTransaction(context.Context, models.Transaction) error { return nil }
func (noopPersister) LoadSnapshot(context.Context) (vault.Snapshot, error)      { return vault.Snapshot{}, nil }

func TestInvestLeavesNoHoldingWhenDepositCannotBeStored(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("db down")
	store := vault.New(
		vault.Roles{Owner: investor, Verifier: investor, RiskAssessor: investor},
		vault.WithPersister(failingInvestments{err: dbErr}),
	)
	svc := services.NewInvestmentService(store, nil, nil)

	bond := greenBond()
	assetID, err := store.CreateAsset(ctx, investor, vault.NewAsset{
		Name:        bond.Name,
		Description: "Sustainable energy infrastructure bonds",
		AssetType:   bond.AssetType,
		Value:       bond.Value,
		Quantity:    bond.Quantity,
	})
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, investor, vault.NewPortfolio{Name: "Conservative Growth", Description: "Low-risk"})
	require.NoError(t, err)

	_, err = svc.Invest(ctx, investor, portfolioID, assetID, models.Units(50))
	require.ErrorIs(t, err, dbErr)

	portfolio, err := store.GetPortfolioInfo(portfolioID)
	require.NoError(t, err)
	assert.Empty(t, portfolio.Holdings)
	total, err := store.GetPortfolioTotalValue(portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, total.Sign())
	assert.Equal(t, uint64(0), store.GetTransactionCount())
}

func TestInvestAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := vault.New(vault.Roles{Owner: investor, Verifier: investor, RiskAssessor: investor})
	svc := services.NewInvestmentService(store, nil, nil)

	bond := greenBond()
	assetID, err := store.CreateAsset(ctx, investor, vault.NewAsset{
		Name:         bond.Name,
		Description:  "Sustainable energy infrastructure bonds",
		AssetType:    bond.AssetType,
		Value:        bond.Value,
		Quantity:     bond.Quantity,
		MetadataHash: "QmHash2",
	})
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, investor, vault.NewPortfolio{Name: "Conservative Growth", Description: "Low-risk"})
	require.NoError(t, err)

	_, err = svc.Invest(ctx, investor, portfolioID, assetID, models.Units(50))
	require.NoError(t, err)

	total, err := store.GetPortfolioTotalValue(portfolioID)
	require.NoError(t, err)
	// O valor da carteira pondera o valor registrado do ativo pelas 100 unidades.
	assert.Equal(t, 0, models.Units(50_000).Cmp(total))

	history, err := store.GetAssetTransactions(assetID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.Deposit, history[0].Type)
}
