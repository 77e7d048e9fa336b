package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var synthesizeAll bool

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <resource-hash>...",
	Short: "Merge extracted resources into a design taste model",
	Long: `Synthesize merges the latest taste representation of each named
resource into a single design taste model: per-axis consensus, deterministic
conflict resolution, and an LLM synthesis pass for the rest. Rebuilding from
unchanged resources replays the cached model.

Resource hashes accept unique prefixes as printed by 'patina extract' and
'patina show'.

Examples:
  patina synthesize 3f2a91c04d77 b0c4e2a19f10
  patina synthesize --all`,
	RunE: runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)
	synthesizeCmd.Flags().BoolVar(&synthesizeAll, "all", false, "synthesize across every extracted resource")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	if !synthesizeAll && len(args) == 0 {
		return fmt.Errorf("name at least one resource hash, or pass --all")
	}

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	hashes := args
	if synthesizeAll {
		records, err := a.store.ListResources(cmd.Context())
		if err != nil {
			return err
		}
		hashes = hashes[:0]
		for _, r := range records {
			hashes = append(hashes, r.Hash)
		}
		if len(hashes) == 0 {
			return fmt.Errorf("no extracted resources found")
		}
	} else {
		hashes, err = resolveHashPrefixes(cmd, a, args)
		if err != nil {
			return err
		}
	}

	m, err := a.pipeline.Synthesize(cmd.Context(), hashes)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", m.ID)
	fmt.Printf("personality: %s\n", m.Personality)
	fmt.Printf("axes: %d  conflicts: %d  resources: %d\n",
		len(m.Consensus), len(m.Conflicts), len(m.Fingerprints))
	return nil
}

// resolveHashPrefixes expands short resource-hash prefixes against the index.
func resolveHashPrefixes(cmd *cobra.Command, a *app, prefixes []string) ([]string, error) {
	records, err := a.store.ListResources(cmd.Context())
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		var match string
		for _, r := range records {
			if len(prefix) <= len(r.Hash) && r.Hash[:len(prefix)] == prefix {
				if match != "" && match != r.Hash {
					return nil, fmt.Errorf("resource hash %q is ambiguous", prefix)
				}
				match = r.Hash
			}
		}
		if match == "" {
			return nil, fmt.Errorf("no resource matches %q", prefix)
		}
		out = append(out, match)
	}
	return out, nil
}
