package vault_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	platformOwner = identity.MustParse("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	verifier      = identity.MustParse("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
	riskAssessor  = identity.MustParse("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
	alice         = identity.MustParse("0x78731D3Ca6b7E34aC0F824c42a7cC18A495cabaB")
	bob           = identity.MustParse("0x617F2E2fD72FD9D5503197092aC168c91465E7f2")
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...vault.Option) *vault.Store {
	t.Helper()
	roles := vault.Roles{Owner: platformOwner, Verifier: verifier, RiskAssessor: riskAssessor}
	opts = append([]vault.Option{vault.WithClock(func() time.Time { return fixedNow })}, opts...)
	return vault.New(roles, opts...)
}

func manhattanTower() vault.NewAsset {
	return vault.NewAsset{
		Name:         "Manhattan Office Tower",
		Description:  "Premium commercial real estate in Manhattan with 95% occupancy rate",
		AssetType:    models.RealEstate,
		Value:        models.Units(100),
		Quantity:     models.Units(1000),
		MetadataHash: "QmHash0",
	}
}

func TestCreateAssetThenGetAssetInfo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := manhattanTower()
	id, err := store.CreateAsset(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	asset, err := store.GetAssetInfo(id)
	require.NoError(t, err)
	assert.Equal(t, in.Name, asset.Name)
	assert.Equal(t, in.Description, asset.Description)
	assert.Equal(t, in.AssetType, asset.AssetType)
	assert.Equal(t, 0, in.Value.Cmp(asset.Value))
	assert.Equal(t, 0, in.Quantity.Cmp(asset.Quantity))
	assert.Equal(t, "QmHash0", asset.MetadataHash)
	assert.Equal(t, alice, asset.Owner)
	assert.True(t, asset.IsActive)
	assert.False(t, asset.IsVerified)
	assert.Equal(t, fixedNow, asset.CreatedAt)
	assert.Equal(t, fixedNow, asset.UpdatedAt)

	value, err := store.GetAssetValue(id)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000000", value.String())

	quantity, err := store.GetAssetQuantity(id)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", quantity.String())
}

func TestReadsReturnCopies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := manhattanTower()
	id, err := store.CreateAsset(ctx, alice, in)
	require.NoError(t, err)

	// Alterar a entrada ou a leitura não pode afetar o estado do cofre.
	in.Value.SetInt64(1)
	asset, err := store.GetAssetInfo(id)
	require.NoError(t, err)
	asset.Value.SetInt64(2)

	value, err := store.GetAssetValue(id)
	require.NoError(t, err)
	assert.Equal(t, 0, models.Units(100).Cmp(value))
}

func TestCreateAssetValidatesInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	cases := map[string]func(*vault.NewAsset){
		"nome vazio":         func(a *vault.NewAsset) { a.Name = "  " },
		"descrição vazia":    func(a *vault.NewAsset) { a.Description = "" },
		"tipo desconhecido":  func(a *vault.NewAsset) { a.AssetType = models.AssetType(9) },
		"valor negativo":     func(a *vault.NewAsset) { a.Value = big.NewInt(-1) },
		"valor ausente":      func(a *vault.NewAsset) { a.Value = nil },
		"quantidade enorme":  func(a *vault.NewAsset) { a.Quantity = tooBig },
		"quantidade ausente": func(a *vault.NewAsset) { a.Quantity = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := manhattanTower()
			mutate(&in)
			_, err := store.CreateAsset(ctx, alice, in)
			assert.ErrorIs(t, err, vault.ErrInvalidInput)
		})
	}

	_, err := store.CreateAsset(ctx, "", manhattanTower())
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	// Nenhuma tentativa inválida consome um ID.
	assert.Equal(t, uint64(0), store.GetAssetCount())
}

func TestZeroValueAndQuantityAreAccepted(t *testing.T) {
	store := newTestStore(t)
	in := manhattanTower()
	in.Value = big.NewInt(0)
	in.Quantity = big.NewInt(0)

	_, err := store.CreateAsset(context.Background(), alice, in)
	assert.NoError(t, err)
}

func TestIDsAreSequentialAndNeverReused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var lastAsset, lastPortfolio int64 = -1, -1
	for i := 0; i < 20; i++ {
		caller := alice
		if i%2 == 1 {
			caller = bob
		}
		assetID, err := store.CreateAsset(ctx, caller, manhattanTower())
		require.NoError(t, err)
		assert.Greater(t, int64(assetID), lastAsset)
		lastAsset = int64(assetID)

		portfolioID, err := store.CreatePortfolio(ctx, caller, vault.NewPortfolio{Name: "P", Description: "D"})
		require.NoError(t, err)
		assert.Greater(t, int64(portfolioID), lastPortfolio)
		lastPortfolio = int64(portfolioID)

		if i%3 == 0 {
			require.NoError(t, store.DeactivateAsset(ctx, caller, assetID))
		}
	}

	assert.Equal(t, uint64(20), store.GetAssetCount())
	assert.Equal(t, uint64(20), store.GetPortfolioCount())

	next, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)
	assert.Equal(t, uint64(20), next)

	assert.Equal(t, []uint64{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, store.GetUserAssets(alice))
	assert.Equal(t, []uint64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, store.GetUserPortfolios(bob))
	assert.Empty(t, store.GetUserAssets(platformOwner))
	assert.NotNil(t, store.GetUserAssets(platformOwner))
}

func TestAddAssetToPortfolioFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assetID, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "Conservative", Description: "Low risk"})
	require.NoError(t, err)

	err = store.AddAssetToPortfolio(ctx, alice, portfolioID, 99, nil)
	assert.ErrorIs(t, err, vault.ErrNotFound)

	err = store.AddAssetToPortfolio(ctx, alice, 42, assetID, nil)
	assert.ErrorIs(t, err, vault.ErrNotFound)

	err = store.AddAssetToPortfolio(ctx, bob, portfolioID, assetID, nil)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	err = store.AddAssetToPortfolio(ctx, alice, portfolioID, assetID, big.NewInt(-5))
	assert.ErrorIs(t, err, vault.ErrInvalidInput)

	portfolio, err := store.GetPortfolioInfo(portfolioID)
	require.NoError(t, err)
	assert.Empty(t, portfolio.Holdings)
}

func TestDeactivatedAssetRejectsMembershipButStaysReadable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assetID, err := store.CreateAsset(ctx, bob, manhattanTower())
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "Growth", Description: "High risk"})
	require.NoError(t, err)

	err = store.DeactivateAsset(ctx, alice, assetID)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	require.NoError(t, store.DeactivateAsset(ctx, bob, assetID))

	err = store.AddAssetToPortfolio(ctx, alice, portfolioID, assetID, nil)
	assert.ErrorIs(t, err, vault.ErrInactiveRecord)

	asset, err := store.GetAssetInfo(assetID)
	require.NoError(t, err)
	assert.False(t, asset.IsActive)

	err = store.DeactivateAsset(ctx, bob, assetID)
	assert.ErrorIs(t, err, vault.ErrInactiveRecord)
	err = store.UpdateAssetDescription(ctx, bob, assetID, "nova descrição")
	assert.ErrorIs(t, err, vault.ErrInactiveRecord)
}

func TestDeactivatedPortfolioRejectsMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assetID, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "Balanced", Description: "Mixed"})
	require.NoError(t, err)

	// O verificador também pode desativar.
	require.NoError(t, store.DeactivatePortfolio(ctx, verifier, portfolioID))

	err = store.AddAssetToPortfolio(ctx, alice, portfolioID, assetID, nil)
	assert.ErrorIs(t, err, vault.ErrInactiveRecord)

	portfolio, err := store.GetPortfolioInfo(portfolioID)
	require.NoError(t, err)
	assert.False(t, portfolio.IsActive)
}

func TestPortfolioTotalValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tower, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)
	bonds, err := store.CreateAsset(ctx, bob, vault.NewAsset{
		Name:        "US Treasury Bonds 2024",
		Description: "AAA-rated US Treasury bonds with 3.5% annual yield",
		AssetType:   models.Bonds,
		Value:       models.Units(50),
		Quantity:    models.Units(500),
	})
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "Mixed", Description: "Tower and bonds"})
	require.NoError(t, err)

	total, err := store.GetPortfolioTotalValue(portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, total.Sign(), "portfólio sem participações vale zero")

	half := new(big.Int).Quo(models.ScaleFactor(), big.NewInt(2))
	require.NoError(t, store.AddAssetToPortfolio(ctx, alice, portfolioID, tower, models.Units(3)))
	require.NoError(t, store.AddAssetToPortfolio(ctx, alice, portfolioID, bonds, half))
	require.NoError(t, store.AddAssetToPortfolio(ctx, alice, portfolioID, tower, nil))

	// 100×3 + 50×0.5 + 100×1 = 425
	total, err = store.GetPortfolioTotalValue(portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, models.Units(425).Cmp(total), "total = %s", total)

	// O total acompanha o valor atual do ativo.
	require.NoError(t, store.UpdateAssetValue(ctx, riskAssessor, bonds, models.Units(10)))
	total, err = store.GetPortfolioTotalValue(portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, models.Units(405).Cmp(total), "total = %s", total)

	_, err = store.GetPortfolioTotalValue(7)
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestConservativeGrowthScenario(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assetID, err := store.CreateAsset(ctx, platformOwner, manhattanTower())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), assetID)

	portfolioID, err := store.CreatePortfolio(ctx, platformOwner, vault.NewPortfolio{
		Name:        "Conservative Growth Portfolio",
		Description: "Low-risk portfolio focusing on bonds and stable real estate",
		IsPublic:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), portfolioID)

	require.NoError(t, store.AddAssetToPortfolio(ctx, platformOwner, 0, 0, nil))

	total, err := store.GetPortfolioTotalValue(0)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000000", total.String())

	portfolio, err := store.GetPortfolioInfo(0)
	require.NoError(t, err)
	require.Len(t, portfolio.Holdings, 1)
	assert.Equal(t, uint64(0), portfolio.Holdings[0].AssetID)
	assert.Equal(t, 0, models.ScaleFactor().Cmp(portfolio.Holdings[0].Quantity))
	assert.True(t, portfolio.IsPublic)
}

func TestRoleRestrictedOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assetID, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)
	portfolioID, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "P", Description: "D"})
	require.NoError(t, err)

	assert.ErrorIs(t, store.SetAssetAPY(ctx, alice, assetID, 850), vault.ErrUnauthorized)
	assert.ErrorIs(t, store.SetAssetAPY(ctx, riskAssessor, assetID, vault.MaxAPYBasisPoints+1), vault.ErrInvalidInput)
	assert.ErrorIs(t, store.SetAssetAPY(ctx, riskAssessor, 99, 850), vault.ErrNotFound)
	require.NoError(t, store.SetAssetAPY(ctx, riskAssessor, assetID, 850))
	require.NoError(t, store.SetAssetAPY(ctx, platformOwner, assetID, 900))

	assert.ErrorIs(t, store.VerifyAsset(ctx, alice, assetID), vault.ErrUnauthorized)
	require.NoError(t, store.VerifyAsset(ctx, verifier, assetID))
	assert.ErrorIs(t, store.VerifyPortfolio(ctx, platformOwner, portfolioID), vault.ErrUnauthorized)
	require.NoError(t, store.VerifyPortfolio(ctx, verifier, portfolioID))

	assert.ErrorIs(t, store.UpdateAssetValue(ctx, bob, assetID, models.Units(1)), vault.ErrUnauthorized)
	require.NoError(t, store.UpdateAssetValue(ctx, alice, assetID, models.Units(120)))

	require.NoError(t, store.UpdateAssetDescription(ctx, verifier, assetID, "Revised"))
	assert.ErrorIs(t, store.UpdateAssetDescription(ctx, alice, assetID, " "), vault.ErrInvalidInput)
	assert.ErrorIs(t, store.UpdatePortfolioDescription(ctx, bob, portfolioID, "x"), vault.ErrUnauthorized)
	require.NoError(t, store.UpdatePortfolioDescription(ctx, alice, portfolioID, "Updated"))

	asset, err := store.GetAssetInfo(assetID)
	require.NoError(t, err)
	assert.Equal(t, uint32(900), asset.APYBasisPoints)
	assert.True(t, asset.IsVerified)
	assert.Equal(t, "Revised", asset.Description)
	assert.Equal(t, 0, models.Units(120).Cmp(asset.Value))
	assert.Equal(t, alice, asset.Owner, "o proprietário nunca muda")

	portfolio, err := store.GetPortfolioInfo(portfolioID)
	require.NoError(t, err)
	assert.True(t, portfolio.IsVerified)
	assert.Equal(t, "Updated", portfolio.Description)
}

func TestUpdatedAtFollowsClock(t *testing.T) {
	now := fixedNow
	store := newTestStore(t, vault.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	id, err := store.CreateAsset(ctx, alice, manhattanTower())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	require.NoError(t, store.UpdateAssetDescription(ctx, alice, id, "later"))

	asset, err := store.GetAssetInfo(id)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, asset.CreatedAt)
	assert.Equal(t, fixedNow.Add(time.Hour), asset.UpdatedAt)
}

func TestListings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.CreateAsset(ctx, alice, manhattanTower())
		require.NoError(t, err)
	}
	_, err := store.CreatePortfolio(ctx, alice, vault.NewPortfolio{Name: "Public", Description: "D", IsPublic: true})
	require.NoError(t, err)
	_, err = store.CreatePortfolio(ctx, bob, vault.NewPortfolio{Name: "Private", Description: "D"})
	require.NoError(t, err)

	assets := store.ListAssets()
	require.Len(t, assets, 3)
	for i, a := range assets {
		assert.Equal(t, uint64(i), a.ID)
	}

	assert.Len(t, store.ListPortfolios(false), 2)
	public := store.ListPortfolios(true)
	require.Len(t, public, 1)
	assert.Equal(t, "Public", public[0].Name)
}

func TestConcurrentCreatesKeepIDsUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers, perWorker = 8, 25
	ids := make(chan uint64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := store.CreateAsset(ctx, alice, manhattanTower())
				if err == nil {
					ids <- id
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "ID %d repetido", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), store.GetAssetCount())
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "invalid_input", vault.Code(vault.ErrInvalidInput))
	assert.Equal(t, "not_found", vault.Code(errors.Join(errors.New("x"), vault.ErrNotFound)))
	assert.Equal(t, "unauthorized", vault.Code(vault.ErrUnauthorized))
	assert.Equal(t, "inactive_record", vault.Code(vault.ErrInactiveRecord))
	assert.Equal(t, "internal", vault.Code(errors.New("boom")))
	assert.Equal(t, "", vault.Code(nil))
}
