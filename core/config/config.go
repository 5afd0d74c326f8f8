package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment overrides.
const (
	EnvConfigPath = "SCANLEDGER_CONFIG"
	EnvLedger     = "SCANLEDGER_LEDGER"
	EnvBackend    = "SCANLEDGER_BACKEND"
	EnvLogLevel   = "SCANLEDGER_LOG_LEVEL"
	EnvRetainName = "SCANLEDGER_RETAIN_NAME"
	EnvEncrypt    = "SCANLEDGER_ENCRYPT"
)

// Storage backends.
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// DefaultConfigFile is looked for in the working directory when no path is given.
const DefaultConfigFile = "scanledger.toml"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type LedgerConfig struct {
	Path                string `toml:"path"`
	Backend             string `toml:"backend"`
	RetainPlaintextName bool   `toml:"retain_plaintext_name"`
	Encrypt             bool   `toml:"encrypt"`
	AuditLog            string `toml:"audit_log"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the effective runtime configuration.
type Config struct {
	Ledger LedgerConfig `toml:"ledger"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Ledger: LedgerConfig{
			Path:                "blockchain.json",
			Backend:             BackendFile,
			RetainPlaintextName: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadEnv loads the given .env files into the process environment, skipping
// any that do not exist. Variables already set are not overridden.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration: defaults, then the TOML file, then
// environment overrides. path may be empty, in which case SCANLEDGER_CONFIG
// and then ./scanledger.toml are tried; a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidConfig, path, undecoded)
		}
	} else if explicit {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLedger); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Ledger.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	for env, dst := range map[string]*bool{
		EnvRetainName: &c.Ledger.RetainPlaintextName,
		EnvEncrypt:    &c.Ledger.Encrypt,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, env, v)
		}
		*dst = b
	}
	return nil
}

// Validate checks backend, path and log settings.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendFile, BackendLevelDB:
		if strings.TrimSpace(c.Ledger.Path) == "" {
			return fmt.Errorf("%w: ledger.path is required for the %s backend", ErrInvalidConfig, c.Ledger.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Ledger.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return lvl, nil
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WriteFile saves the configuration as TOML at path.
func (c Config) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}
