// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ditto CLI, which converts DOCX
// documents to PDF through a headless LibreOffice.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/ditto/internal/converter"
	"github.com/pdiddy/ditto/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE from --verbose.
var logger = zap.NewNop()

// rootCmd is the base command for the ditto CLI.
var rootCmd = &cobra.Command{
	Use:   "ditto",
	Short: "Convert DOCX documents to PDF with headless LibreOffice",
	Long: `ditto converts DOCX documents to PDF by running LibreOffice (soffice) in
headless mode. It finds the converter on PATH or at a configured location,
bounds each run with a timeout and reports every failure with a distinct
exit code:

  3  converter binary not found      7  converter exited with an error
  4  input file not found            8  converter produced no PDF
  5  invalid input or output path    9  could not move the PDF into place
  6  conversion timed out           10  produced file is not a PDF
 11  cancelled                        2  some documents in a batch failed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./ditto.yaml or ~/.config/ditto/ditto.yaml)")
	flags.BoolP("verbose", "v", false, "log converter activity to stderr")
	flags.String("journal", "", "record conversions in this SQLite database")

	defaults := converter.DefaultOptions()
	flags.Duration("timeout", defaults.Timeout, "maximum run time of one conversion")
	flags.Duration("grace-period", defaults.GracePeriod, "wait for converter pipes after it is killed")
	flags.String("binary", "", "path to soffice (skips PATH lookup)")
	flags.Bool("cleanup-on-failure", defaults.CleanupOnFailure, "delete partial output when a conversion fails")
	flags.Bool("isolate-profile", defaults.IsolateProfile, "use a private LibreOffice profile per run")
	flags.Bool("verify-input", false, "check that the input is a DOCX container before converting")
	flags.Bool("inspect", false, "parse the produced PDF and report its page count")

	bindFlags(viper.GetViper(), rootCmd)
}

// bindFlags ties the persistent flags to their config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	bindings := map[string]string{
		"conversion.timeout":            "timeout",
		"conversion.grace_period":       "grace-period",
		"conversion.binary_path":        "binary",
		"conversion.cleanup_on_failure": "cleanup-on-failure",
		"conversion.isolate_profile":    "isolate-profile",
		"conversion.verify_input":       "verify-input",
		"conversion.inspect":            "inspect",
		"journal.path":                  "journal",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	v := viper.GetViper()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ditto")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ditto"))
		}
	}

	setDefaults(v)
	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

// setDefaults registers defaults and environment bindings on v.
// DITTO_CONVERSION_TIMEOUT style names work for every key; DITTO_BINARY and
// DITTO_TIMEOUT are accepted as short forms.
func setDefaults(v *viper.Viper) {
	defaults := converter.DefaultOptions()
	v.SetDefault("conversion.timeout", defaults.Timeout)
	v.SetDefault("conversion.grace_period", defaults.GracePeriod)
	v.SetDefault("conversion.cleanup_on_failure", defaults.CleanupOnFailure)
	v.SetDefault("conversion.isolate_profile", defaults.IsolateProfile)
	v.SetDefault("batch.jobs", 1)

	v.SetEnvPrefix("DITTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("conversion.binary_path", "DITTO_BINARY", "DITTO_CONVERSION_BINARY_PATH")
	_ = v.BindEnv("conversion.timeout", "DITTO_TIMEOUT", "DITTO_CONVERSION_TIMEOUT")
}

// loadConfig decodes the merged configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newConverter builds a Converter from the merged configuration.
func newConverter() (*converter.Converter, types.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, types.Config{}, err
	}
	return converter.New(converter.OptionsFromConfig(cfg.Conversion), logger), cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ditto:", err)
		os.Exit(exitCode(err))
	}
}
