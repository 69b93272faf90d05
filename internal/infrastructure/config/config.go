// Package config reads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
)

// ErrUnknownField is returned when an alias file names a field the ledger
// does not have.
var ErrUnknownField = errors.New("unknown field")

// Ledger backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	App     AppConfig
	Ledger  LedgerConfig
	Match   MatchConfig
	Session SessionConfig
}

type AppConfig struct {
	Addr        string
	Environment string
	LogFilePath string
}

type LedgerConfig struct {
	CSVPath string
	Backend string
	DataDir string
	Watch   bool
}

type MatchConfig struct {
	CompanyCutoff  float64
	FieldCutoff    float64
	FieldAliasFile string
	FieldAliases   []entities.FieldAlias
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Addr:        getEnv("APP_ADDR", ":8080"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "ledgerchat.log"),
		},
		Ledger: LedgerConfig{
			CSVPath: getEnv("LEDGER_CSV_PATH", "balance_long.csv"),
			Backend: strings.ToLower(getEnv("LEDGER_BACKEND", BackendMemory)),
			DataDir: getEnv("LEDGER_DATA_DIR", "./data"),
			Watch:   getEnvAsBool("LEDGER_WATCH", true),
		},
		Match: MatchConfig{
			CompanyCutoff:  getEnvAsFloat("COMPANY_MATCH_CUTOFF", 0.8),
			FieldCutoff:    getEnvAsFloat("FIELD_MATCH_CUTOFF", 0.5),
			FieldAliasFile: getEnv("FIELD_ALIAS_FILE", ""),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", time.Hour),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Match.FieldAliases = entities.DefaultFieldAliases()
	if cfg.Match.FieldAliasFile != "" {
		aliases, err := LoadFieldAliases(cfg.Match.FieldAliasFile)
		if err != nil {
			return nil, err
		}
		cfg.Match.FieldAliases = aliases
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", BackendMemory, BackendSQLite, c.Ledger.Backend)
	}
	if err := validCutoff("COMPANY_MATCH_CUTOFF", c.Match.CompanyCutoff); err != nil {
		return err
	}
	return validCutoff("FIELD_MATCH_CUTOFF", c.Match.FieldCutoff)
}

func validCutoff(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
	}
	return nil
}

type aliasEntry struct {
	Alias string `yaml:"alias"`
	Field string `yaml:"field"`
}

// LoadFieldAliases reads an ordered YAML list of {alias, field} entries.
// Aliases are lower-cased; order is kept because the first hit wins.
func LoadFieldAliases(path string) ([]entities.FieldAlias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}
	return ParseFieldAliases(data)
}

// ParseFieldAliases decodes alias YAML.
func ParseFieldAliases(data []byte) ([]entities.FieldAlias, error) {
	var entries []aliasEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing alias file: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("alias file has no entries")
	}

	aliases := make([]entities.FieldAlias, 0, len(entries))
	for i, e := range entries {
		alias := strings.ToLower(strings.TrimSpace(e.Alias))
		if alias == "" {
			return nil, fmt.Errorf("alias entry %d: empty alias", i+1)
		}
		field, ok := entities.ParseField(strings.TrimSpace(e.Field))
		if !ok {
			return nil, fmt.Errorf("alias entry %d (%s): %w %q", i+1, alias, ErrUnknownField, e.Field)
		}
		aliases = append(aliases, entities.FieldAlias{Alias: alias, Field: field})
	}
	return aliases, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
