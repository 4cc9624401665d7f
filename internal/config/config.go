// Package config reads and writes budget.yaml and applies environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/budgetctl/budgetctl/internal/categorize"
	"github.com/budgetctl/budgetctl/internal/model"
	"github.com/budgetctl/budgetctl/internal/schema"
)

// FileName is the config file at the root of a budget repository.
const FileName = "budget.yaml"

// Environment variables consulted by FromEnv.
const (
	EnvRepo     = "BUDGETCTL_REPO"
	EnvLogLevel = "BUDGETCTL_LOG_LEVEL"
	EnvAddr     = "BUDGETCTL_ADDR"
)

// Config represents the top-level budget.yaml configuration.
type Config struct {
	Owner      OwnerConfig      `yaml:"owner"`
	Import     ImportConfig     `yaml:"import"`
	Categories CategoriesConfig `yaml:"categories"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Git        GitConfig        `yaml:"git"`
}

// OwnerConfig identifies whose budget this is.
type OwnerConfig struct {
	Name string `yaml:"name"`
}

// ImportConfig extends CSV header detection.
type ImportConfig struct {
	Headers HeadersConfig `yaml:"headers,omitempty"`
}

// HeadersConfig lists extra recognized spellings per column role.
type HeadersConfig struct {
	Date        []string `yaml:"date,omitempty"`
	Amount      []string `yaml:"amount,omitempty"`
	Description []string `yaml:"description,omitempty"`
	Balance     []string `yaml:"balance,omitempty"`
}

// CategoriesConfig extends the built-in pattern table.
type CategoriesConfig struct {
	Patterns []PatternConfig `yaml:"patterns,omitempty"`
}

// PatternConfig adds patterns to a category, creating it if unknown.
type PatternConfig struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a budget.yaml file from disk. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadRepo reads <repoRoot>/budget.yaml, falling back to defaults when the
// file does not exist.
func LoadRepo(repoRoot string) (*Config, error) {
	cfg, err := Load(filepath.Join(repoRoot, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(""), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new budget.
func Default(ownerName string) *Config {
	return &Config{
		Owner:   OwnerConfig{Name: ownerName},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "budgetctl",
			AuthorEmail: "budgetctl@localhost",
		},
	}
}

// Env holds values taken from the environment.
type Env struct {
	Repo     string
	LogLevel string
	Addr     string
}

// FromEnv loads an optional .env file from the working directory and reads
// the BUDGETCTL_* variables. Variables already set in the process win over
// the .env file.
func FromEnv() Env {
	_ = godotenv.Load()
	return Env{
		Repo:     getEnv(EnvRepo, ""),
		LogLevel: getEnv(EnvLogLevel, ""),
		Addr:     getEnv(EnvAddr, ""),
	}
}

// Apply overrides config values with the non-empty environment values.
func (e Env) Apply(cfg *Config) {
	if e.LogLevel != "" {
		cfg.Logging.Level = e.LogLevel
	}
	if e.Addr != "" {
		cfg.Server.Addr = e.Addr
	}
}

// HeaderTable returns the built-in header table extended with the
// configured spellings.
func (c *Config) HeaderTable() schema.Table {
	h := c.Import.Headers
	return schema.DefaultTable().Extend(map[schema.Role][]string{
		schema.RoleDate:        h.Date,
		schema.RoleAmount:      h.Amount,
		schema.RoleDescription: h.Description,
		schema.RoleBalance:     h.Balance,
	})
}

// PatternTable returns the built-in pattern table with the configured
// patterns appended.
func (c *Config) PatternTable() (*categorize.Table, error) {
	tbl := categorize.DefaultTable()
	rows := make([]categorize.CategoryPatterns, 0, len(c.Categories.Patterns))
	for _, p := range c.Categories.Patterns {
		cat := strings.TrimSpace(p.Category)
		if cat == "" {
			return nil, fmt.Errorf("categories.patterns: empty category")
		}
		rows = append(rows, categorize.CategoryPatterns{Category: model.Category(cat), Patterns: p.Patterns})
	}
	if err := tbl.AddAll(rows); err != nil {
		return nil, fmt.Errorf("categories.patterns: %w", err)
	}
	return tbl, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
