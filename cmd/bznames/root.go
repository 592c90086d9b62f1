package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bznames",
	Short: "bznames fits character n-gram models on Brazilian first names",
	Long: `bznames fetches the IBGE census name ranking, fits character n-gram models on it,
stores them in SQLite, and uses them to score and generate names, from the command line
or over an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "bznames.json", "Path to the JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path; overrides the config file")
}
