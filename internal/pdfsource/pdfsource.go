// Package pdfsource extracts page images out of a PDF document so the OCR
// pipeline can run detect/recognize over each page exactly as it would over
// a standalone raster image. Page-level rendering is out of scope for
// pdfcpu (it has no rasterizer), so this package extracts the embedded
// raster images pdfcpu finds per page, mirroring how scanned-document PDFs
// are typically produced: one full-page scan image per page, embedded
// directly, sometimes alongside smaller logo/icon images that are not
// useful OCR input and would otherwise waste a detect+recognize pass.
package pdfsource

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	_ "golang.org/x/image/bmp"

	"github.com/dvocr/dvocr/internal/ocrerrors"
)

// MinOCRDimension is the smallest width or height, in pixels, an embedded
// image needs in either dimension to be considered page content rather than
// a logo, bullet, or other decorative asset. Scanned-page images are almost
// always well above this; small embedded art is almost always well below it.
const MinOCRDimension = 64

// Page is one PDF page's OCR-able content: the largest raster image pdfcpu
// extracted from it (the page scan, when the PDF is a scanned document), and
// how many smaller candidate images on that page were set aside as unlikely
// to be useful OCR input.
type Page struct {
	Number       int
	Image        image.Image
	SkippedSmall int
}

// ExtractPages extracts the OCR-able image for every page of the PDF at
// path, within pageRange. pageRange follows pdfcpu's own syntax, e.g. "1-3"
// or "1,3,5"; an empty pageRange extracts every page. A page contributes no
// Page if none of its embedded images reaches MinOCRDimension in both
// dimensions. Pages are returned in ascending page-number order.
func ExtractPages(path string, pageRange string) ([]Page, error) {
	if path == "" {
		return nil, ocrerrors.NewArgumentError("pdfsource.extract", errors.New("empty path"))
	}
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, ocrerrors.NewArgumentError("pdfsource.extract", fmt.Errorf("invalid page range %q: %w", pageRange, err))
	}

	tempDir, err := os.MkdirTemp("", "dvocr-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, n := range pageNumbers {
			pageStrings[i] = strconv.Itoa(n)
		}
	}

	if err := api.ExtractImagesFile(path, tempDir, pageStrings, nil); err != nil {
		return nil, ocrerrors.NewArgumentError("pdfsource.extract", fmt.Errorf("extract images from pdf: %w", err))
	}

	return collectPages(tempDir)
}

// collectPages walks dir for pdfcpu's extracted-image naming convention
// (page_<num>_image_<idx>.<ext>), groups decoded images by page number, and
// reduces each page's candidates to a single OCR-able image.
func collectPages(dir string) ([]Page, error) {
	byPage := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		pageNum, ok := parsePageFromFilename(info.Name())
		if !ok {
			return nil
		}
		img, decodeErr := loadImageFile(path)
		if decodeErr != nil || img == nil {
			return nil
		}
		byPage[pageNum] = append(byPage[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk extracted images: %w", err)
	}

	pages := make([]Page, 0, len(byPage))
	for n, imgs := range byPage {
		page, ok := selectPageImage(n, imgs)
		if ok {
			pages = append(pages, page)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// selectPageImage picks the largest-by-area image among a page's candidates
// as its OCR-able content and counts how many of the rest fell below
// MinOCRDimension. A page whose largest candidate is itself below
// MinOCRDimension contributes no Page, since it has no usable content.
func selectPageImage(number int, candidates []image.Image) (Page, bool) {
	var best image.Image
	var bestArea int
	skipped := 0
	for _, img := range candidates {
		b := img.Bounds()
		area := b.Dx() * b.Dy()
		if b.Dx() < MinOCRDimension || b.Dy() < MinOCRDimension {
			skipped++
			continue
		}
		if area > bestArea {
			best, bestArea = img, area
		}
	}
	if best == nil {
		return Page{}, false
	}
	return Page{Number: number, Image: best, SkippedSmall: skipped}, true
}

func loadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside a temp dir this package created
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// parsePageFromFilename extracts the page number out of pdfcpu's
// "page_<num>_image_<idx>.<ext>" output naming.
func parsePageFromFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, "page_") {
		return 0, false
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePageRange parses a page range string like "1-5" or "1,3,5". An empty
// string means "every page" and returns a nil slice.
func parsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		part = strings.TrimSpace(part)
		tokenPages, err := parseRangeToken(part)
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", bounds[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", bounds[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{n}, nil
}
