package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [dtm-id]",
	Short: "List extracted resources and models, or dump one model",
	Long: `Without arguments, show lists every extracted resource and every
synthesized taste model. With a model id (or unique prefix), it prints the
full model as JSON.

Examples:
  patina show
  patina show dtm_3fa2b1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		m, err := a.store.LoadDTM(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	resources, err := a.store.ListResources(cmd.Context())
	if err != nil {
		return err
	}
	models, err := a.store.ListDTMs(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("RESOURCES (%d)\n", len(resources))
	for _, r := range resources {
		fmt.Printf("  %s  %-24s  %-13s  %s\n",
			r.Hash[:12], r.Name, r.Kind, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Printf("\nMODELS (%d)\n", len(models))
	for _, m := range models {
		fmt.Printf("  %-12s  %d resources  %s\n",
			m.ID, 1+strings.Count(m.FingerprintSet, ","), m.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
