package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/momtest/internal/config"
	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/harness"
	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/internal/platform"
	"github.com/me/momtest/internal/scenario"
	"github.com/me/momtest/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagRoot      string
	flagConfig    string
	flagPlatform  string
	flagDB        string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultPlatform returns the platform named by the label env var, else nci.
func defaultPlatform() string {
	if p := os.Getenv(config.PlatformEnvVar); p != "" {
		return p
	}
	return config.DefaultPlatform
}

// ExitError carries a process exit status out of a command.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string {
	return e.Msg
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return execution.ExitCodeOf(err)
}

// NewRootCmd creates the root cobra command for the momtest CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "momtest",
		Short: "momtest runs MOM model test scenarios",
		Long: `momtest builds MOM, fetches experiment inputs, submits model runs to PBS
(or runs them directly) and checks that each run reached its natural end.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(logging.Options{
				Level:  flagLogLevel,
				Format: flagLogFormat,
				Debug:  flagDebug,
			}, cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagRoot, "root", ".", "Repository root holding exp/, data/ and work/")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flagPlatform, "platform", defaultPlatform(), "Platform profile (or "+config.PlatformEnvVar+" env)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "Run history database (default <work>/momtest.db)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newBuildCmd(),
		newFetchCmd(),
		newRenderCmd(),
		newHistoryCmd(),
	)

	return root
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.HarnessConfig, error) {
	cfg := config.DefaultHarnessConfig(flagRoot)
	cfg.Platform = flagPlatform
	if flagConfig != "" {
		if err := config.LoadFile(flagConfig, &cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.RootDir = flagRoot
	}
	if flags.Changed("platform") {
		cfg.Platform = flagPlatform
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDB
	}
	if err := cfg.Resolve(); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.WorkDir, "momtest.db")
	}
	return cfg, nil
}

// env is what most commands need: config, platform profile, harness and
// scenario table.
type env struct {
	cfg      config.HarnessConfig
	profile  platform.Profile
	harness  *harness.Harness
	registry *scenario.Registry
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	profile, err := platform.Resolve(cfg.Platform, cfg.TemplatePath)
	if err != nil {
		return nil, err
	}

	registry := scenario.Default()
	if cfg.ScenarioFile != "" {
		if registry, err = scenario.LoadFile(cfg.ScenarioFile, registry); err != nil {
			return nil, err
		}
	}

	h := harness.New(cfg, profile, harness.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Logger: logger,
	})
	return &env{cfg: cfg, profile: profile, harness: h, registry: registry}, nil
}

// openStore opens and migrates the run history database.
func openStore(ctx context.Context, cfg config.HarnessConfig) (*store.SQLiteStore, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.DBPath, err)
	}
	return st, nil
}
