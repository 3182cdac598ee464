// Package main provides the entry point for the PFE Match HTTP API server and its
// maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathan/pfe-match/internal/config"
)

var (
	configPath string
	flagViper  = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "pfe_match",
	Short: "PFE Match HTTP API Server",
	Long:  "PFE Match connects students looking for a final-year internship with the companies offering them, and scores how well each student fits each listing.",
	// Errors are printed once by main.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit JSON logs")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	_ = flagViper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("json"))
	_ = flagViper.BindPFlag("log_debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// loadConfig reads the application configuration with CLI flags taking precedence over
// the environment and the config file.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadWith(flagViper, configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
