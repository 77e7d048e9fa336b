// Package cmd provides the patina CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagVerbose  bool
	flagProvider string
)

var rootCmd = &cobra.Command{
	Use:   "patina",
	Short: "Patina - a design taste model extractor",
	Long: `Patina studies design resources (Figma exports, screenshots), extracts
per-resource taste representations through multi-pass LLM analysis, merges
them into a design taste model, and renders that model into design tokens
and component code.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider override (anthropic|openai|google)")
}
