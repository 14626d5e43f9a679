package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fieldlens",
	Short: "LLM-powered structured field extraction from PDF documents",
	Long: `Fieldlens extracts structured fields from PDF documents using LLM
providers, with a human-in-the-loop feedback cycle for corrections.

The workflow:
  - Upload a PDF to open an extraction session
  - Run extraction against a JSON field schema
  - Review the result; submit feedback to rerun with corrections
  - Export the final result as JSON or an XLSX workbook`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.fieldlens/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "fieldlens home directory (default: ~/.fieldlens)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
