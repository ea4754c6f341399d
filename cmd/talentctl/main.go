// Package main implements talentctl, the operational CLI for batch
// indexing and document processing.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "talentctl",
	Short: "talentctl runs batch operations against the talentgrid backends",
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("debug", false, "verbose output")

	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetEnvPrefix("")
	viper.AutomaticEnv()

	rootCmd.AddCommand(indexJobsCmd)
	rootCmd.AddCommand(processDocsCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if viper.GetBool("json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
