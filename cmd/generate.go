package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/patina/core/genui"
)

var (
	generateComponent    string
	generateTarget       string
	generateInstructions string
	generateOut          string
)

var generateCmd = &cobra.Command{
	Use:   "generate <dtm-id>",
	Short: "Generate component code from a design taste model",
	Long: `Generate renders a taste model into component code. The model's
tokens, axes, and personality drive the output; the --component flag names
what to build.

Examples:
  patina generate dtm_3fa2b1 --component "pricing card"
  patina generate dtm_3fa2b1 --component "settings form" --target html-css -o form.html`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateComponent, "component", "c", "", "component to build (required)")
	generateCmd.Flags().StringVarP(&generateTarget, "target", "t", "", "output target (react-tailwind|html-css)")
	generateCmd.Flags().StringVar(&generateInstructions, "instructions", "", "extra guidance for the generator")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "write code to file instead of stdout")
	generateCmd.MarkFlagRequired("component")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.store.LoadDTM(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	generator, err := a.generator()
	if err != nil {
		return err
	}

	target := generateTarget
	if target == "" {
		target = a.cfg.Generation.DefaultTarget
	}
	artifact, err := generator.Generate(cmd.Context(), m, genui.Request{
		Component:    generateComponent,
		Target:       genui.Target(target),
		Instructions: generateInstructions,
	})
	if err != nil {
		return err
	}

	runID, err := a.store.SaveRun(cmd.Context(), m.ID, generateComponent, artifact)
	if err != nil {
		return err
	}
	a.logger.Info("generation run saved", "run", runID, "dtm", m.ID)

	if generateOut != "" {
		if err := os.WriteFile(generateOut, []byte(artifact.Code+"\n"), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", generateOut, err)
		}
		fmt.Printf("%s (%s, %s)\n", generateOut, artifact.Language, runID)
		return nil
	}

	fmt.Println(artifact.Code)
	return nil
}
