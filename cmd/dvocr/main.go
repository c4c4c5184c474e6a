// Command dvocr is the CLI entry point for the dvocr OCR pipeline.
package main

import "github.com/dvocr/dvocr/cmd/dvocr/cmd"

func main() {
	cmd.Execute()
}
