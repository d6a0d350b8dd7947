// Package config defines the pipeline configuration file format and its
// validation. The config is a single JSON document covering the data-layer
// paths, the warehouse backend, the search index, and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration object decoded from the JSON config file.
type Config struct {
	// Job is the logical job name used for metrics tags and log lines.
	Job string `json:"job"`

	Layers    Layers    `json:"layers"`
	Source    Source    `json:"source"`
	Warehouse Warehouse `json:"warehouse"`
	Search    Search    `json:"search"`
	Server    Server    `json:"server"`
}

// Layers holds the bronze/silver/gold directory paths. Environment variables
// in the paths are expanded at load time.
type Layers struct {
	Bronze string `json:"bronze"`
	Silver string `json:"silver"`
	Gold   string `json:"gold"`
}

// Source names the two raw extract files inside the bronze directory.
type Source struct {
	MoviesFile  string `json:"movies_file"`
	CreditsFile string `json:"credits_file"`
}

// Warehouse selects the relational backend and its DSN.
//
// Kind must match a backend registered with warehouse.Register
// ("sqlite", "postgres", "mssql").
type Warehouse struct {
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
}

// Search configures the secondary full-text index.
type Search struct {
	Enabled   bool   `json:"enabled"`
	IndexPath string `json:"index_path"`
}

// Server configures the HTTP API served by cmd/server.
//
// Accounts maps usernames to plaintext passwords for Basic Auth. This mirrors
// the demo credentials of the original service; production deployments should
// supply them via environment expansion in the config file.
type Server struct {
	Addr     string            `json:"addr"`
	Accounts map[string]string `json:"accounts"`
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding with a JSON-ish path to the offending
// field.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// Load reads, decodes, and normalizes a config file.
//
// Normalization:
//   - environment variables in paths, the DSN, and account passwords are
//     expanded
//   - missing file names and the job name get defaults
//
// Load does not validate; call Validate on the result and inspect the issues.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	c.Layers.Bronze = os.ExpandEnv(c.Layers.Bronze)
	c.Layers.Silver = os.ExpandEnv(c.Layers.Silver)
	c.Layers.Gold = os.ExpandEnv(c.Layers.Gold)
	c.Warehouse.DSN = os.ExpandEnv(c.Warehouse.DSN)
	c.Search.IndexPath = os.ExpandEnv(c.Search.IndexPath)
	for user, pass := range c.Server.Accounts {
		c.Server.Accounts[user] = os.ExpandEnv(pass)
	}

	if c.Job == "" {
		c.Job = "movie_dw"
	}
	if c.Source.MoviesFile == "" {
		c.Source.MoviesFile = "tmdb_5000_movies.csv"
	}
	if c.Source.CreditsFile == "" {
		c.Source.CreditsFile = "tmdb_5000_credits.csv"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Search.Enabled && c.Search.IndexPath == "" {
		c.Search.IndexPath = filepath.Join(c.Layers.Gold, "movies.bleve")
	}

	return c, nil
}

// Validate checks a loaded config and returns all findings. The caller decides
// whether warnings are fatal; cmd/etl aborts only on SeverityError.
func Validate(c Config) []Issue {
	var issues []Issue

	req := func(path, v string) {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, path, "must not be empty"})
		}
	}

	req("layers.bronze", c.Layers.Bronze)
	req("layers.silver", c.Layers.Silver)
	req("layers.gold", c.Layers.Gold)
	req("warehouse.kind", c.Warehouse.Kind)
	req("warehouse.dsn", c.Warehouse.DSN)

	switch c.Warehouse.Kind {
	case "", "sqlite", "postgres", "mssql":
	default:
		issues = append(issues, Issue{
			SeverityError, "warehouse.kind",
			fmt.Sprintf("unknown backend %q (expected sqlite, postgres, or mssql)", c.Warehouse.Kind),
		})
	}

	if c.Search.Enabled && strings.TrimSpace(c.Search.IndexPath) == "" {
		issues = append(issues, Issue{SeverityError, "search.index_path", "must be set when search is enabled"})
	}

	if len(c.Server.Accounts) == 0 {
		issues = append(issues, Issue{
			SeverityWarning, "server.accounts",
			"no accounts configured; the API will be served without authentication",
		})
	}

	return issues
}

// MoviesPath returns the full path of the raw movie extract.
func (c Config) MoviesPath() string { return filepath.Join(c.Layers.Bronze, c.Source.MoviesFile) }

// CreditsPath returns the full path of the raw credits extract.
func (c Config) CreditsPath() string { return filepath.Join(c.Layers.Bronze, c.Source.CreditsFile) }
