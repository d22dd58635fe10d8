// =============================================================================
// EDIFACT Generator - Root Command
// =============================================================================
//
// This file defines the root command of the CLI. Every subcommand shares the
// main configuration and the logger prepared here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (edigen)
//   ├── processCmd (edigen process)
//   ├── composeCmd (edigen compose FILE)
//   ├── cleanCmd   (edigen clean)
//   └── versionCmd (edigen version)
//
// CONFIGURATION:
//   The main config is read through viper (config.yaml, EDIGEN_* variables
//   and an optional .env file). Logging goes to stderr so that stdout only
//   ever carries generated documents.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/annis-souames/edifact-generator/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

var (
	// cfgFile is the main configuration file.
	cfgFile string

	// envFile is loaded before the environment is read.
	envFile string

	// verbose forces debug logging on the console.
	verbose bool

	mainConfig *config.MainConfig
	logger     = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "edigen",
	Short: "EDIFACT Generator - Compose D96A INVOIC interchanges from invoice data",
	Long: `EDIFACT Generator turns invoice data exported from ERP and billing
systems into UN/EDIFACT D96A INVOIC interchanges.

Key Features:
  - CSV, XLSX and YAML invoice sources
  - Partner specific column mappings via XLSX templates and YAML profiles
  - Transformation rules and validation with detailed error reporting
  - Concurrent processing of input files
  - Archival of processed inputs and generated interchanges

Example Usage:
  edigen process                        # Process every file in the input directory
  edigen process --config ./prod.yaml   # Use a custom configuration file
  edigen compose invoice.yaml           # Print one interchange to stdout`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "Path to the main configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Environment file to load (default .env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads the main configuration and prepares the logger.
func setup() error {
	conf, err := config.LoadMainConfig(config.LoadOptions{ConfigFile: cfgFile, EnvFile: envFile})
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		conf.Logging.Level = "debug"
	}

	log, err := conf.Logging.Prepare()
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	mainConfig = conf
	logger = log
	return nil
}

// loadPartners reads the partner profiles. A missing configs directory means
// no partners.
func loadPartners() (map[string]*config.PartnerConfig, error) {
	if _, err := os.Stat(mainConfig.ConfigsDir); os.IsNotExist(err) {
		logger.Warn("partner configuration directory does not exist", zap.String("dir", mainConfig.ConfigsDir))
		return map[string]*config.PartnerConfig{}, nil
	}
	partners, err := config.LoadPartnerConfigs(mainConfig.ConfigsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner configs: %w", err)
	}
	return partners, nil
}

// selectPartner returns the partner named by code, or the partner whose file
// patterns match fileName, or the default partner.
func selectPartner(partners map[string]*config.PartnerConfig, code, fileName string) (*config.PartnerConfig, error) {
	if code != "" {
		p, ok := partners[code]
		if !ok {
			return nil, fmt.Errorf("unknown partner %q", code)
		}
		return p, nil
	}
	if p, ok := config.MatchPartner(partners, fileName); ok {
		return p, nil
	}
	return config.DefaultPartner(), nil
}
