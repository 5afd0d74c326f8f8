package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"scanledger/core/audit"
	"scanledger/core/config"
	"scanledger/core/ledger"
	"scanledger/core/storage"
	"scanledger/core/validation"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	ledgerPath string
	backend    string
	logLevel   string

	cfg    config.Config
	log    zerolog.Logger
	store  *ledger.Store
	trail  *audit.FileAuditLogger
	closer func() error
}

// NewRootCmd builds the scanledger command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "scanledger",
		Short: "Clinical scan ledger CLI",
		Long: "A command-line tool for recording clinical scan transactions in a " +
			"hash-linked block ledger and inspecting it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default ./scanledger.toml or $"+config.EnvConfigPath+")")
	pf.StringVar(&a.ledgerPath, "ledger", "", "Ledger document path")
	pf.StringVar(&a.backend, "backend", "", "Storage backend: file|leveldb|memory")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")

	root.AddCommand(
		newAppendCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newDeleteCmd(a),
		newVerifyCmd(a),
		newStatusCmd(a),
		newExportCmd(a),
		newGenerateCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	// PersistentPostRunE is skipped when RunE fails, so each command
	// releases the backend itself.
	for _, c := range root.Commands() {
		if run := c.RunE; run != nil {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				defer a.close()
				return run(cmd, args)
			}
		}
	}
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.ledgerPath != "" {
		cfg.Ledger.Path = a.ledgerPath
	}
	if a.backend != "" {
		cfg.Ledger.Backend = a.backend
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	validation.SetAuditLogger(a.log)

	backend, closer, err := a.openBackend(cfg.Ledger)
	if err != nil {
		return err
	}
	a.closer = closer

	var auditor audit.AuditLogger = audit.NewZerologAuditLogger(a.log)
	if cfg.Ledger.AuditLog != "" {
		a.trail = audit.NewFileAuditLogger(cfg.Ledger.AuditLog, a.log)
		auditor = audit.MultiAuditLogger{auditor, a.trail}
	}
	a.store = ledger.NewStore(backend,
		ledger.WithLogger(a.log),
		ledger.WithAuditLogger(auditor),
		ledger.WithRetainName(cfg.Ledger.RetainPlaintextName),
	)
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer()
	a.closer = nil
	return err
}

func newLogger(w io.Writer, cfg config.Config) (zerolog.Logger, error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return zerolog.Nop(), err
	}
	out := w
	if cfg.Log.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// openBackend builds the storage medium for lc, wrapped in encryption when
// lc.Encrypt is set.
func (a *app) openBackend(lc config.LedgerConfig) (storage.Backend, func() error, error) {
	var (
		backend storage.Backend
		closer  func() error
	)
	switch lc.Backend {
	case config.BackendFile:
		backend = storage.NewFileBackend(lc.Path)
	case config.BackendLevelDB:
		db, err := storage.NewLevelDBBackend(lc.Path)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = db, db.Close
	case config.BackendMemory:
		backend = storage.NewMemoryBackend()
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, lc.Backend)
	}

	if lc.Encrypt {
		dek, err := storage.KeyFromEnv()
		if err != nil {
			if closer != nil {
				closer()
			}
			return nil, nil, err
		}
		enc, err := storage.NewEncryptedBackend(backend, dek)
		if err != nil {
			if closer != nil {
				closer()
			}
			return nil, nil, err
		}
		backend = enc
	}
	a.log.Debug().Str("backend", fmt.Sprint(backend)).Msg("[STORAGE] backend ready")
	return backend, closer, nil
}
