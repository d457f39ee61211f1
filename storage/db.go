package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/big"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrations = &migrate.EmbedFileSystemMigrationSource{
	FileSystem: migrationsFS,
	Root:       "migrations",
}

// DB representa a conexão com o banco de dados PostgreSQL.
// Implementa vault.Persister.
type DB struct {
	*sqlx.DB
	log *zap.Logger
}

var _ vault.Persister = (*DB)(nil)

// Connect abre a conexão com o PostgreSQL sem aplicar migrações.
func Connect(dataSourceName string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao pingar o banco de dados: %w", err)
	}
	logger.Info("conexão com PostgreSQL estabelecida")

	return &DB{DB: db, log: logger}, nil
}

// NewDB conecta-se ao PostgreSQL e executa as migrações pendentes.
func NewDB(dataSourceName string, logger *zap.Logger) (*DB, error) {
	db, err := Connect(dataSourceName, logger)
	if err != nil {
		return nil, err
	}

	if _, err := db.Migrate(migrate.Up, 0); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao executar migrações: %w", err)
	}
	return db, nil
}

// Migrate aplica (ou reverte) até max migrações; max = 0 aplica todas.
func (d *DB) Migrate(direction migrate.MigrationDirection, max int) (int, error) {
	n, err := migrate.ExecMax(d.DB.DB, "postgres", migrations, direction, max)
	if err != nil {
		return n, fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if n > 0 {
		d.log.Info("migrações aplicadas", zap.Int("count", n))
	} else {
		d.log.Info("nenhuma migração nova para aplicar")
	}
	return n, nil
}

type assetRow struct {
	ID           uint64       `db:"id"`
	Name         string       `db:"name"`
	Description  string       `db:"description"`
	AssetType    uint8        `db:"asset_type"`
	Value        string       `db:"value"`
	Quantity     string       `db:"quantity"`
	MetadataHash string       `db:"metadata_hash"`
	IsActive     bool         `db:"is_active"`
	IsVerified   bool         `db:"is_verified"`
	APYBps       uint32       `db:"apy_bps"`
	Owner        string       `db:"owner"`
	CreatedAt    sql.NullTime `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

type portfolioRow struct {
	ID          uint64       `db:"id"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	IsPublic    bool         `db:"is_public"`
	IsVerified  bool         `db:"is_verified"`
	IsActive    bool         `db:"is_active"`
	Owner       string       `db:"owner"`
	CreatedAt   sql.NullTime `db:"created_at"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
}

type holdingRow struct {
	PortfolioID uint64       `db:"portfolio_id"`
	Position    int          `db:"position"`
	AssetID     uint64       `db:"asset_id"`
	Quantity    string       `db:"quantity"`
	AddedAt     sql.NullTime `db:"added_at"`
}

type transactionRow struct {
	ID          uint64        `db:"id"`
	Reference   string        `db:"reference"`
	FromAssetID sql.NullInt64 `db:"from_asset_id"`
	ToAssetID   sql.NullInt64 `db:"to_asset_id"`
	Amount      string        `db:"amount"`
	TxType      uint8         `db:"tx_type"`
	Description string        `db:"description"`
	Caller      string        `db:"caller"`
	CreatedAt   sql.NullTime  `db:"created_at"`
}

// SaveAsset insere o ativo ou atualiza seus campos mutáveis.
func (d *DB) SaveAsset(ctx context.Context, a models.Asset) error {
	query := `
		INSERT INTO assets (id, name, description, asset_type, value, quantity, metadata_hash,
			is_active, is_verified, apy_bps, owner, created_at, updated_at)
		VALUES (:id, :name, :description, :asset_type, :value, :quantity, :metadata_hash,
			:is_active, :is_verified, :apy_bps, :owner, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			value       = EXCLUDED.value,
			is_active   = EXCLUDED.is_active,
			is_verified = EXCLUDED.is_verified,
			apy_bps     = EXCLUDED.apy_bps,
			updated_at  = EXCLUDED.updated_at`
	row := assetRow{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		AssetType:    uint8(a.AssetType),
		Value:        a.Value.String(),
		Quantity:     a.Quantity.String(),
		MetadataHash: a.MetadataHash,
		IsActive:     a.IsActive,
		IsVerified:   a.IsVerified,
		APYBps:       a.APYBasisPoints,
		Owner:        a.Owner.String(),
		CreatedAt:    sql.NullTime{Time: a.CreatedAt, Valid: true},
		UpdatedAt:    sql.NullTime{Time: a.UpdatedAt, Valid: true},
	}
	if _, err := d.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("falha ao salvar ativo %d: %w", a.ID, err)
	}
	return nil
}

// SavePortfolio insere o portfólio ou atualiza seu cabeçalho. As participações
// são gravadas apenas por AppendHolding.
func (d *DB) SavePortfolio(ctx context.Context, p models.Portfolio) error {
	if _, err := d.NamedExecContext(ctx, upsertPortfolioQuery, toPortfolioRow(p)); err != nil {
		return fmt.Errorf("falha ao salvar portfólio %d: %w", p.ID, err)
	}
	return nil
}

const upsertPortfolioQuery = `
	INSERT INTO portfolios (id, name, description, is_public, is_verified, is_active, owner, created_at, updated_at)
	VALUES (:id, :name, :description, :is_public, :is_verified, :is_active, :owner, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		description = EXCLUDED.description,
		is_public   = EXCLUDED.is_public,
		is_verified = EXCLUDED.is_verified,
		is_active   = EXCLUDED.is_active,
		updated_at  = EXCLUDED.updated_at`

func toPortfolioRow(p models.Portfolio) portfolioRow {
	return portfolioRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsPublic:    p.IsPublic,
		IsVerified:  p.IsVerified,
		IsActive:    p.IsActive,
		Owner:       p.Owner.String(),
		CreatedAt:   sql.NullTime{Time: p.CreatedAt, Valid: true},
		UpdatedAt:   sql.NullTime{Time: p.UpdatedAt, Valid: true},
	}
}

// namedExecer é satisfeito tanto por *sqlx.DB quanto por *sqlx.Tx.
type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// AppendHolding grava a última participação do portfólio e seu novo
// updated_at numa única transação SQL.
func (d *DB) AppendHolding(ctx context.Context, p models.Portfolio) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	if err := appendHolding(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar participação do portfólio %d: %w", p.ID, err)
	}
	return nil
}

// SaveTransaction grava uma movimentação do livro-razão. O lado ausente vira NULL.
func (d *DB) SaveTransaction(ctx context.Context, t models.Transaction) error {
	return insertTransaction(ctx, d, t)
}

// RecordInvestment grava a nova participação do portfólio e o depósito
// correspondente numa única transação SQL. Ou tudo é confirmado ou nada.
func (d *DB) RecordInvestment(ctx context.Context, p models.Portfolio, t models.Transaction) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	if err := appendHolding(ctx, tx, p); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar investimento no portfólio %d: %w", p.ID, err)
	}
	return nil
}

func appendHolding(ctx context.Context, ex namedExecer, p models.Portfolio) error {
	if len(p.Holdings) == 0 {
		return fmt.Errorf("portfólio %d sem participação para gravar", p.ID)
	}
	position := len(p.Holdings) - 1
	h := p.Holdings[position]

	_, err := ex.NamedExecContext(ctx, `
		INSERT INTO portfolio_holdings (portfolio_id, position, asset_id, quantity, added_at)
		VALUES (:portfolio_id, :position, :asset_id, :quantity, :added_at)`,
		holdingRow{
			PortfolioID: p.ID,
			Position:    position,
			AssetID:     h.AssetID,
			Quantity:    h.Quantity.String(),
			AddedAt:     sql.NullTime{Time: h.AddedAt, Valid: true},
		})
	if err != nil {
		return fmt.Errorf("falha ao inserir participação do portfólio %d: %w", p.ID, err)
	}
	if _, err := ex.NamedExecContext(ctx, upsertPortfolioQuery, toPortfolioRow(p)); err != nil {
		return fmt.Errorf("falha ao atualizar portfólio %d: %w", p.ID, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, ex namedExecer, t models.Transaction) error {
	query := `
		INSERT INTO transactions (id, reference, from_asset_id, to_asset_id, amount, tx_type, description, caller, created_at)
		VALUES (:id, :reference, :from_asset_id, :to_asset_id, :amount, :tx_type, :description, :caller, :created_at)`
	row := transactionRow{
		ID:          t.ID,
		Reference:   t.Reference.String(),
		FromAssetID: nullableAssetID(t.FromAssetID),
		ToAssetID:   nullableAssetID(t.ToAssetID),
		Amount:      t.Amount.String(),
		TxType:      uint8(t.Type),
		Description: t.Description,
		Caller:      t.Caller.String(),
		CreatedAt:   sql.NullTime{Time: t.CreatedAt, Valid: true},
	}
	if _, err := ex.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("falha ao salvar transação %d: %w", t.ID, err)
	}
	return nil
}

// LoadSnapshot lê todas as tabelas em ordem de ID para reidratar o cofre.
func (d *DB) LoadSnapshot(ctx context.Context) (vault.Snapshot, error) {
	var snap vault.Snapshot

	var assets []assetRow
	if err := d.SelectContext(ctx, &assets, `SELECT * FROM assets ORDER BY id`); err != nil {
		return snap, fmt.Errorf("falha ao ler ativos: %w", err)
	}
	for _, r := range assets {
		a, err := r.toModel()
		if err != nil {
			return snap, err
		}
		snap.Assets = append(snap.Assets, a)
	}

	var portfolios []portfolioRow
	if err := d.SelectContext(ctx, &portfolios, `SELECT * FROM portfolios ORDER BY id`); err != nil {
		return snap, fmt.Errorf("falha ao ler portfólios: %w", err)
	}
	var holdings []holdingRow
	if err := d.SelectContext(ctx, &holdings, `SELECT * FROM portfolio_holdings ORDER BY portfolio_id, position`); err != nil {
		return snap, fmt.Errorf("falha ao ler participações: %w", err)
	}
	byPortfolio := make(map[uint64][]models.Holding)
	for _, r := range holdings {
		qty, err := parseNumeric(r.Quantity)
		if err != nil {
			return snap, fmt.Errorf("participação %d/%d: %w", r.PortfolioID, r.Position, err)
		}
		byPortfolio[r.PortfolioID] = append(byPortfolio[r.PortfolioID], models.Holding{
			AssetID:  r.AssetID,
			Quantity: qty,
			AddedAt:  r.AddedAt.Time.UTC(),
		})
	}
	for _, r := range portfolios {
		p := models.Portfolio{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			IsPublic:    r.IsPublic,
			IsVerified:  r.IsVerified,
			IsActive:    r.IsActive,
			Owner:       identity.Address(r.Owner),
			CreatedAt:   r.CreatedAt.Time.UTC(),
			UpdatedAt:   r.UpdatedAt.Time.UTC(),
			Holdings:    byPortfolio[r.ID],
		}
		if p.Holdings == nil {
			p.Holdings = []models.Holding{}
		}
		snap.Portfolios = append(snap.Portfolios, p)
	}

	var txs []transactionRow
	if err := d.SelectContext(ctx, &txs, `SELECT * FROM transactions ORDER BY id`); err != nil {
		return snap, fmt.Errorf("falha ao ler transações: %w", err)
	}
	for _, r := range txs {
		t, err := r.toModel()
		if err != nil {
			return snap, err
		}
		snap.Transactions = append(snap.Transactions, t)
	}

	d.log.Debug("snapshot lido do PostgreSQL",
		zap.Int("assets", len(snap.Assets)),
		zap.Int("portfolios", len(snap.Portfolios)),
		zap.Int("transactions", len(snap.Transactions)),
	)
	return snap, nil
}

func (r assetRow) toModel() (models.Asset, error) {
	value, err := parseNumeric(r.Value)
	if err != nil {
		return models.Asset{}, fmt.Errorf("valor do ativo %d: %w", r.ID, err)
	}
	quantity, err := parseNumeric(r.Quantity)
	if err != nil {
		return models.Asset{}, fmt.Errorf("quantidade do ativo %d: %w", r.ID, err)
	}
	return models.Asset{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		AssetType:      models.AssetType(r.AssetType),
		Value:          value,
		Quantity:       quantity,
		MetadataHash:   r.MetadataHash,
		IsActive:       r.IsActive,
		IsVerified:     r.IsVerified,
		APYBasisPoints: r.APYBps,
		Owner:          identity.Address(r.Owner),
		CreatedAt:      r.CreatedAt.Time.UTC(),
		UpdatedAt:      r.UpdatedAt.Time.UTC(),
	}, nil
}

func (r transactionRow) toModel() (models.Transaction, error) {
	amount, err := parseNumeric(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("montante da transação %d: %w", r.ID, err)
	}
	ref, err := parseReference(r.Reference)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("referência da transação %d: %w", r.ID, err)
	}
	return models.Transaction{
		ID:          r.ID,
		Reference:   ref,
		FromAssetID: assetIDFromNull(r.FromAssetID),
		ToAssetID:   assetIDFromNull(r.ToAssetID),
		Amount:      amount,
		Type:        models.TransactionType(r.TxType),
		Description: r.Description,
		Caller:      identity.Address(r.Caller),
		CreatedAt:   r.CreatedAt.Time.UTC(),
	}, nil
}

func parseNumeric(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("NUMERIC inválido: %q", s)
	}
	return v, nil
}

func parseReference(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

func nullableAssetID(id uint64) sql.NullInt64 {
	if id == models.NoAsset {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func assetIDFromNull(n sql.NullInt64) uint64 {
	if !n.Valid {
		return models.NoAsset
	}
	return uint64(n.Int64)
}
