// Package cmd provides the command-line interface for docsentry with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. DOCSENTRY_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (DOCSENTRY_SERVER_PORT, etc.)
//	4. Configuration files (.docsentry.yml) - lowest priority
//
// Environment Variables:
//
//	DOCSENTRY_CONFIG_FILE: Path to custom configuration file
//	DOCSENTRY_SERVER_PORT: Override server port
//	DOCSENTRY_SERVER_HOST: Override server host
//	DOCSENTRY_DEVELOPMENT_HOT_RELOAD: Enable/disable hot reload
//	And more following the DOCSENTRY_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docsentry",
	Short: "Content integrity checker for markdown documentation",
	Long: `Docsentry keeps a markdown documentation tree healthy. It parses the
YAML front-matter of every page, lints the schema (title, description,
aside, keywords), resolves internal links and heading anchors, and checks
external links for rot.

Quick Start:
  docsentry lint                  Lint front-matter and internal links
  docsentry links                 Check external links for rot
  docsentry list                  List all discovered documents
  docsentry serve                 Serve the live integrity report
  docsentry watch                 Re-lint on file changes`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept snake_case spellings of multi-word flags
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .docsentry.yml, can also use DOCSENTRY_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. DOCSENTRY_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .docsentry.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DOCSENTRY_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docsentry")
	}

	// Enable automatic environment variable binding with DOCSENTRY_ prefix
	// Examples: DOCSENTRY_SERVER_PORT, DOCSENTRY_LINKS_TIMEOUT
	viper.SetEnvPrefix("DOCSENTRY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or broken config files fall back to defaults without failing
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
