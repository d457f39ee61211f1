// Package config carrega a configuração do serviço a partir de um arquivo
// YAML, com sobrescritas por variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"

	"gopkg.in/yaml.v3"
)

// DefaultMinInvestment é o investimento mínimo padrão, 0.0286 na escala 10^18.
const DefaultMinInvestment = "28600000000000000"

// Config é a configuração completa do serviço.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LogConfig      `yaml:"logging"`
	Roles    RolesConfig    `yaml:"roles"`

	// Investimento mínimo aceito pelo serviço de cotação, inteiro escalado.
	MinInvestment string `yaml:"min_investment"`
}

// HTTPConfig configura o servidor HTTP.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig configura o PostgreSQL. Sem URL o cofre roda só em memória.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LogConfig configura o logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console ou json
	File   string `yaml:"file"`   // vazio para stderr

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// RolesConfig define as contas privilegiadas. Verifier e RiskAssessor
// assumem o Owner quando vazios.
type RolesConfig struct {
	Owner        string `yaml:"owner"`
	Verifier     string `yaml:"verifier"`
	RiskAssessor string `yaml:"risk_assessor"`
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
		},
		Logging: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		MinInvestment: DefaultMinInvestment,
	}
}

// Load lê a configuração do caminho informado. Um arquivo inexistente
// resulta na configuração padrão; as variáveis de ambiente valem nos dois casos.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("falha ao ler configuração: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("falha ao interpretar configuração: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"VAULTRWA_HTTP_ADDR":      &c.HTTP.Addr,
		"VAULTRWA_DATABASE_URL":   &c.Database.URL,
		"VAULTRWA_LOG_LEVEL":      &c.Logging.Level,
		"VAULTRWA_OWNER":          &c.Roles.Owner,
		"VAULTRWA_VERIFIER":       &c.Roles.Verifier,
		"VAULTRWA_RISK_ASSESSOR":  &c.Roles.RiskAssessor,
		"VAULTRWA_MIN_INVESTMENT": &c.MinInvestment,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// Validate verifica identidades, durações e o investimento mínimo.
func (c *Config) Validate() error {
	if c.Roles.Owner == "" {
		return fmt.Errorf("owner da plataforma não configurado (defina roles.owner ou VAULTRWA_OWNER)")
	}
	if _, err := c.VaultRoles(); err != nil {
		return err
	}
	if _, err := c.MinInvestmentAmount(); err != nil {
		return err
	}
	for name, d := range map[string]string{
		"http.read_timeout":     c.HTTP.ReadTimeout,
		"http.write_timeout":    c.HTTP.WriteTimeout,
		"http.shutdown_timeout": c.HTTP.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("duração inválida em %s: %w", name, err)
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("formato de log inválido: %q (válidos: console, json)", c.Logging.Format)
	}
	return nil
}

// VaultRoles converte as identidades configuradas para a forma canônica.
func (c *Config) VaultRoles() (vault.Roles, error) {
	owner, err := identity.Parse(c.Roles.Owner)
	if err != nil {
		return vault.Roles{}, fmt.Errorf("owner inválido: %w", err)
	}
	roles := vault.Roles{Owner: owner, Verifier: owner, RiskAssessor: owner}
	if c.Roles.Verifier != "" {
		if roles.Verifier, err = identity.Parse(c.Roles.Verifier); err != nil {
			return vault.Roles{}, fmt.Errorf("verifier inválido: %w", err)
		}
	}
	if c.Roles.RiskAssessor != "" {
		if roles.RiskAssessor, err = identity.Parse(c.Roles.RiskAssessor); err != nil {
			return vault.Roles{}, fmt.Errorf("risk assessor inválido: %w", err)
		}
	}
	return roles, nil
}

// MinInvestmentAmount retorna o investimento mínimo como inteiro escalado.
func (c *Config) MinInvestmentAmount() (*big.Int, error) {
	if c.MinInvestment == "" {
		return new(big.Int), nil
	}
	v, err := models.ParseAmount(c.MinInvestment)
	if err != nil {
		return nil, fmt.Errorf("min_investment inválido: %w", err)
	}
	if !models.ValidAmount(v) {
		return nil, fmt.Errorf("min_investment fora do intervalo: %s", c.MinInvestment)
	}
	return v, nil
}

// Timeouts retorna os tempos limite do servidor HTTP. Chame após Validate.
func (c *Config) Timeouts() (read, write, shutdown time.Duration) {
	read, _ = time.ParseDuration(c.HTTP.ReadTimeout)
	write, _ = time.ParseDuration(c.HTTP.WriteTimeout)
	shutdown, _ = time.ParseDuration(c.HTTP.ShutdownTimeout)
	return read, write, shutdown
}
