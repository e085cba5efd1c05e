// internal/config/model.go
//
// Typed configuration model for the search service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                       – dotenv values,
//   • `conf/global.yaml`                    – primary static file,
//   • `FAC_`-prefixed environment overrides – highest precedence.
//
// A database password of the form `vault:<mount/path>#<key>` is left as is
// by the loader and swapped for the real secret by `ResolveSecrets`, which
// cmd/web calls once the Vault client is up.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yanizio/distiller/internal/vault"
)

//
// HTTP section
//

// HTTP holds web-server tunables.  Zero timeouts fall back to the server
// package defaults.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"min=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"min=0"`
}

//
// Database section
//

// Database describes the assistance-listing store.
//
// The DSN is a template kept in YAML so operators can tweak host, port, or
// flags without touching Vault.  When it carries one `%s` verb the password
// is substituted there at connect time, keeping credentials out of flat
// files and git history.
type Database struct {
	Driver   string `koanf:"driver"   validate:"required,oneof=mysql pgx"`
	DSN      string `koanf:"dsn"      validate:"required,dsn_template"`
	Password string `koanf:"password"`
	MaxOpen  int    `koanf:"max_open" validate:"min=0"`
	MaxIdle  int    `koanf:"max_idle" validate:"min=0"`
}

// DSNWithPassword returns the DSN with the password substituted.  A DSN
// without a verb is returned unchanged.  Postgres URL DSNs get the password
// percent-encoded so `@`, `/`, and `:` survive URL parsing.
func (d Database) DSNWithPassword() string {
	if !strings.Contains(d.DSN, "%s") {
		return d.DSN
	}
	pw := d.Password
	if d.Driver == "pgx" && isURLDSN(d.DSN) {
		pw = strings.TrimPrefix(url.UserPassword("", pw).String(), ":")
	}
	return fmt.Sprintf(d.DSN, pw)
}

func isURLDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

//
// Search section
//

// Search tunes the search form.
type Search struct {
	// FACStartYear is the year before the first selectable audit year.
	// Zero keeps the built-in default.
	FACStartYear int `koanf:"fac_start_year" validate:"omitempty,min=1997,max=2100"`

	// SubAgencyCacheTTL keeps sub-agency choices per prefix in memory.
	// Zero disables the cache.
	SubAgencyCacheTTL  time.Duration `koanf:"subagency_cache_ttl"  validate:"min=0"`
	SubAgencyCacheSize int           `koanf:"subagency_cache_size" validate:"min=0"`
}

//
// Log section
//

// Log selects the minimum level written to the daily log.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Security section
//

// Security holds response-header policy.
type Security struct {
	CSP string `koanf:"csp"`
}

//
// Vault section
//

// Vault tunes secret resolution.  Address and token come from the standard
// VAULT_ADDR and VAULT_TOKEN variables.
type Vault struct {
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime and never set in YAML or env.  The loader
// discovers `Root` (repo root or FAC_ROOT override) so later code can build
// absolute file paths.
type Paths struct {
	Root string // FAC_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the aggregate returned by Load().  Only ResolveSecrets mutates
// it, once, before the service starts.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Search   Search   `koanf:"search"`
	Log      Log      `koanf:"log"`
	Security Security `koanf:"security"`
	Vault    Vault    `koanf:"vault"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

//
// Secret resolution
//

// SecretResolver reads one key of a KV secret.  *vault.Client satisfies it.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// NeedsSecrets reports whether any value still holds a Vault reference.
func (c *Config) NeedsSecrets() bool {
	_, _, ok := vault.ParseRef(c.Database.Password)
	return ok
}

// ResolveSecrets replaces Vault references with their values.  A nil
// resolver is an error only when a reference is present.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	path, key, ok := vault.ParseRef(c.Database.Password)
	if !ok {
		return nil
	}
	if r == nil {
		return errors.New("config: database.password references vault but no client is configured")
	}
	pw, err := r.GetKV(ctx, path, key, c.Vault.CacheTTL)
	if err != nil {
		return fmt.Errorf("config: resolve database.password: %w", err)
	}
	c.Database.Password = pw
	return nil
}
