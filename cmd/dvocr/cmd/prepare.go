package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvocr/dvocr/internal/models"
)

var prepareModelsCmd = &cobra.Command{
	Use:   "prepare-models",
	Short: "Check that the models directory is ready for use",
	Long: `Validate that the detector, recognizer, and dictionary files exist
under the configured models directory. The angle classifier is optional: its
absence is reported but does not make the directory unready.

This command never downloads or writes anything; fetching models is an
operator concern outside this pipeline.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		status := models.PrepareModels(cfg.ModelsDir)

		fmt.Printf("models dir: %s\n", status.ModelsDir)
		fmt.Printf("version:    %s\n", status.Version)
		fmt.Printf("classifier: present=%v\n", status.ClassifierPresent)
		if len(status.Missing) > 0 {
			fmt.Println("missing:")
			for _, m := range status.Missing {
				fmt.Printf("  - %s\n", m)
			}
		}
		fmt.Printf("ready: %v\n", status.IsReady)
		if !status.IsReady {
			requiredMissing := len(status.Missing)
			if !status.ClassifierPresent {
				requiredMissing--
			}
			return fmt.Errorf("models directory is not ready: %d required component(s) missing", requiredMissing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareModelsCmd)
}
