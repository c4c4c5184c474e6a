package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dvocr/dvocr/internal/imagesource"
)

var hasTextCmd = &cobra.Command{
	Use:   "hastext [image]",
	Short: "Quick-check whether an image likely contains text",
	Long: `Run the short-circuiting quick-check pipeline: the detector streams
candidate regions, the first few scoring at least 0.9 are kept, and
recognition stops at the first one that clears the confidence threshold,
without recognizing every region.

Examples:
  dvocr hastext photo.jpg
  dvocr hastext scan.png --format yaml`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format := cfg.Output.Format

		proc, err := newProcessor(cfg)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}
		defer proc.Close()

		img, _, err := imagesource.Load(args[0])
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		result, err := proc.HasHighConfidenceText(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("quick-check %s: %w", args[0], err)
		}

		switch format {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(result)
		case "text":
			fmt.Printf("hasText=%v detectorHit=%v bestScore=%.4f\n", result.HasText, result.DetectorHit, result.BestScore)
			return nil
		default:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
	},
}

func init() {
	rootCmd.AddCommand(hasTextCmd)
}
