package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formwork",
	Short: "Formwork is a form-state engine for reactive UIs",
	Long: `Formwork manages deeply nested form state: path-based reads and
writes, schema validation, per-field status tracking, and bounded
undo/redo over state snapshots. Sessions can be served over HTTP or MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}
