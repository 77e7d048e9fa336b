package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var extractGlob string

var extractCmd = &cobra.Command{
	Use:   "extract <export.json|screenshot.png|dir>...",
	Short: "Extract a design taste representation from resources",
	Long: `Extract runs the multi-pass taste analysis over one or more design
resources. Figma export JSON gets deterministic code metrics plus LLM passes;
screenshots get the LLM passes alone. Directories are scanned with --glob.

Examples:
  patina extract checkout.json
  patina extract exports/ --glob '*.json'
  patina extract exports/ shots/home.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractGlob, "glob", "*.{json,png,jpg,jpeg,webp}", "filename pattern for directory scans")
}

func runExtract(cmd *cobra.Command, args []string) error {
	paths, err := expandResourceArgs(args, extractGlob)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no resources matched")
	}

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.pipeline.ExtractAll(cmd.Context(), paths)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL  %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Printf("%s  %s  (%s)\n", r.Resource.Hash[:12], r.Resource.Name, r.Resource.Kind)
		if n := len(r.DTR.Provenance.DegradedPasses); n > 0 {
			fmt.Printf("      degraded passes: %v\n", r.DTR.Provenance.DegradedPasses)
		}
	}

	fmt.Printf("\n%d extracted, %d failed\n", len(results)-failed, failed)
	if failed == len(results) {
		return fmt.Errorf("all extractions failed")
	}
	return nil
}

// expandResourceArgs resolves files directly and scans directories with the
// glob pattern.
func expandResourceArgs(args []string, pattern string) ([]string, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !matcher.Match(d.Name()) {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}
