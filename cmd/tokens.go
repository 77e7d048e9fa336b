package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/patina/core/genui"
)

var tokensOut string

var tokensCmd = &cobra.Command{
	Use:   "tokens <dtm-id>",
	Short: "Emit CSS design tokens from a taste model",
	Long: `Tokens renders a taste model into CSS custom properties. The output
is deterministic: the same model always yields the same file, with no LLM
involved.

Examples:
  patina tokens dtm_3fa2b1
  patina tokens dtm_3fa2b1 -o tokens.css`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().StringVarP(&tokensOut, "out", "o", "", "write CSS to file instead of stdout")
}

func runTokens(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.store.LoadDTM(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	css := genui.TokensFromDTM(m).CSS()
	if tokensOut != "" {
		if err := os.WriteFile(tokensOut, []byte(css), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", tokensOut, err)
		}
		fmt.Println(tokensOut)
		return nil
	}
	fmt.Print(css)
	return nil
}
