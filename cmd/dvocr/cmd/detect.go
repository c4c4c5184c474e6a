package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dvocr/dvocr/internal/imagesource"
	"github.com/dvocr/dvocr/internal/ocr"
)

var detectOutputFile string

var detectCmd = &cobra.Command{
	Use:   "detect [image...]",
	Short: "Detect and recognize text in one or more images",
	Long: `Run the full detection + recognition pipeline over one or more image
files and print the recognized regions.

Examples:
  dvocr detect photo.jpg
  dvocr detect *.png --format yaml
  dvocr detect scan.jpg --output results.json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format := cfg.Output.Format

		proc, err := newProcessor(cfg)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}
		defer proc.Close()

		out, err := openOutput(detectOutputFile)
		if err != nil {
			return err
		}
		defer out.Close()

		for _, path := range args {
			if err := detectOne(cmd.Context(), proc, path, format, out); err != nil {
				slog.Error("detect failed", "file", path, "error", err)
				return err
			}
		}
		return nil
	},
}

func detectOne(ctx context.Context, proc *ocr.Processor, path, format string, out io.Writer) error {
	img, _, err := imagesource.Load(path)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	results, err := proc.ProcessImage(ctx, img)
	if err != nil {
		return fmt.Errorf("process %s: %w", path, err)
	}
	records := toRegionRecords(results)
	return writeRegions(out, format, regionOutput{File: path, Regions: records, Count: len(records)})
}

func init() {
	detectCmd.Flags().StringVarP(&detectOutputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.AddCommand(detectCmd)
}
