package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espalier-ai/espalier/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a resilient AI tutoring engine",
	Long: `Espalier turns a learning request into a complete lesson: a plan,
resources, practice problems and an assessment. Every generation step has a
rule-based fallback, so it works offline and degrades instead of failing.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (ESPALIER_* env vars override it)")
}

// loadConfig reads the configuration honoring the persistent --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
