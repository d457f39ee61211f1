package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ferreirogomes/vaultrwa/config"
	"github.com/ferreirogomes/vaultrwa/handlers"
	"github.com/ferreirogomes/vaultrwa/logging"
	"github.com/ferreirogomes/vaultrwa/metrics"
	"github.com/ferreirogomes/vaultrwa/services"
	"github.com/ferreirogomes/vaultrwa/storage"
	"github.com/ferreirogomes/vaultrwa/vault"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "vaultrwa",
		Short:         "Cofre de registros de ativos do mundo real e portfólios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "vaultrwa.yaml", "arquivo de configuração YAML")
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia a API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuração inválida: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	roles, err := cfg.VaultRoles()
	if err != nil {
		return err
	}
	minInvestment, err := cfg.MinInvestmentAmount()
	if err != nil {
		return err
	}

	opts := []vault.Option{vault.WithLogger(logger.Named("vault"))}
	var ping func(context.Context) error
	if cfg.Database.URL != "" {
		db, err := storage.NewDB(cfg.Database.URL, logger.Named("storage"))
		if err != nil {
			return fmt.Errorf("falha fatal ao conectar ao banco de dados e aplicar migrações: %w", err)
		}
		defer db.Close()
		opts = append(opts, vault.WithPersister(db))
		ping = db.PingContext
	} else {
		logger.Warn("database.url vazio, o cofre roda apenas em memória")
	}

	store := vault.New(roles, opts...)
	if err := store.Load(ctx); err != nil {
		return err
	}
	logger.Info("cofre carregado",
		zap.Uint64("assets", store.GetAssetCount()),
		zap.Uint64("portfolios", store.GetPortfolioCount()),
		zap.Uint64("transactions", store.GetTransactionCount()),
	)

	registry := metrics.NewRegistry(store)
	router := handlers.NewRouter(handlers.Deps{
		Vault:       store,
		Investments: services.NewInvestmentService(store, minInvestment, logger.Named("investments")),
		Logger:      logger.Named("http"),
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Registry:    registry,
		Ping:        ping,
	})

	read, write, shutdown := cfg.Timeouts()
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  read,
		WriteTimeout: write,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("servidor backend rodando", zap.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("servidor HTTP encerrado: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("encerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("falha ao encerrar servidor: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	var (
		down     bool
		maxCount int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica (ou reverte com --down) as migrações do PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Database.URL == "" {
				return errors.New("database.url não configurado (defina VAULTRWA_DATABASE_URL)")
			}
			db, err := storage.Connect(cfg.Database.URL, logger.Named("storage"))
			if err != nil {
				return err
			}
			defer db.Close()

			direction := migrate.Up
			if down {
				direction = migrate.Down
			}
			n, err := db.Migrate(direction, maxCount)
			if err != nil {
				return err
			}
			logger.Info("migrações aplicadas", zap.Int("count", n), zap.Bool("down", down))
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "reverte migrações em vez de aplicar")
	cmd.Flags().IntVar(&maxCount, "max", 0, "número máximo de migrações (0 = todas)")
	return cmd
}
