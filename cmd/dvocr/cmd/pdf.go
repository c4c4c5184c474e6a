package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dvocr/dvocr/internal/pdfsource"
)

var (
	pdfOutputFile string
	pdfPageRange  string
)

var pdfCmd = &cobra.Command{
	Use:   "pdf [document.pdf]",
	Short: "Run OCR over the embedded raster images of a PDF's pages",
	Long: `Extract the embedded raster images from each page of a PDF (scanned
documents carry page content as images, not selectable text) and run the
same detection+recognition pipeline over each page image.

Examples:
  dvocr pdf document.pdf
  dvocr pdf document.pdf --pages 1-3,7 --format yaml`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format := cfg.Output.Format

		pages, err := pdfsource.ExtractPages(args[0], pdfPageRange)
		if err != nil {
			return fmt.Errorf("extract pages from %s: %w", args[0], err)
		}

		proc, err := newProcessor(cfg)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}
		defer proc.Close()

		out, err := openOutput(pdfOutputFile)
		if err != nil {
			return err
		}
		defer out.Close()

		for _, page := range pages {
			if page.SkippedSmall > 0 {
				slog.Debug("pdf page skipped small embedded images", "file", args[0], "page", page.Number, "skipped", page.SkippedSmall)
			}
			results, err := proc.ProcessImage(cmd.Context(), page.Image)
			if err != nil {
				slog.Error("pdf page ocr failed", "file", args[0], "page", page.Number, "error", err)
				return fmt.Errorf("process page %d: %w", page.Number, err)
			}
			records := toRegionRecords(results)
			if err := writeRegions(out, format, regionOutput{
				File: args[0], Page: page.Number, Regions: records, Count: len(records),
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	pdfCmd.Flags().StringVarP(&pdfOutputFile, "output", "o", "", "write output to file instead of stdout")
	pdfCmd.Flags().StringVar(&pdfPageRange, "pages", "", "page range to process, e.g. \"1-3,7\" (default: all pages)")
	rootCmd.AddCommand(pdfCmd)
}
