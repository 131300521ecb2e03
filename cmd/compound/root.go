package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/internal/paths"
	"github.com/mesh-intelligence/compound/pkg/compound"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir   string
	flagDataDir     string
	flagBackend     string
	flagJSON        bool
	flagVerbose     bool
	flagMetricsFile string
)

// Process-wide state set by PersistentPreRunE.
var (
	settings *viper.Viper
	logger   = zap.NewNop()
	registry = prometheus.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:           "compound",
	Short:         "Manage compound objects and the order of their children",
	Version:       compound.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(flagVerbose)
		if err != nil {
			return err
		}
		logger = log

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		settings, err = loadConfig(configDir)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		return writeMetrics(flagMetricsFile)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.compound-db)")
	pf.StringVar(&flagBackend, "backend", "", "storage backend: sqlite or memory (overrides config.yaml)")
	pf.BoolVar(&flagJSON, "json", false, "output as JSON")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "development logging to stderr")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return userError(err)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(childrenCmd)
	rootCmd.AddCommand(parentsCmd)
	rootCmd.AddCommand(reorderCmd)
}

// resolveConfigDir applies --config-dir > COMPOUND_CONFIG_DIR > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir applies --data-dir > config.yaml data_dir >
// COMPOUND_DATA_DIR > $(CWD)/.compound-db.
func resolveDataDir() (string, error) {
	var configured string
	if settings != nil {
		configured = settings.GetString(cfgKeyDataDir)
	}
	return paths.ResolveDataDir(flagDataDir, configured)
}
