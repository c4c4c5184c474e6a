package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dvocr/dvocr/internal/ocr"
)

// regionOutput is the file-format-agnostic shape written for detect/pdf
// results: json and yaml marshal it directly, text formats it line by line.
type regionOutput struct {
	File    string         `json:"file,omitempty" yaml:"file,omitempty"`
	Page    int            `json:"page,omitempty" yaml:"page,omitempty"`
	Regions []regionRecord `json:"regions" yaml:"regions"`
	Count   int            `json:"count" yaml:"count"`
}

type regionRecord struct {
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Rotated    bool    `json:"rotated" yaml:"rotated"`
}

func toRegionRecords(results []ocr.ProcessResult) []regionRecord {
	out := make([]regionRecord, len(results))
	for i, r := range results {
		out[i] = regionRecord{Text: r.Text, Confidence: r.Confidence, Rotated: r.Rotated}
	}
	return out
}

// writeRegions renders a set of OCR results in the requested format to w.
// format is one of "json" (default), "yaml", or "text".
func writeRegions(w io.Writer, format string, out regionOutput) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(out)
	case "text":
		for _, r := range out.Regions {
			fmt.Fprintf(w, "%.4f\t%s\n", r.Confidence, r.Text)
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

// openOutput returns os.Stdout when outputFile is empty, else a writer to
// the named file (caller must close the returned io.WriteCloser when it is
// not os.Stdout; for os.Stdout this is a harmless no-op close).
func openOutput(outputFile string) (io.WriteCloser, error) {
	if outputFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outputFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
