// Package imagesource decodes still images from disk or an io.Reader,
// registering the stdlib JPEG/PNG/GIF decoders plus BMP via
// golang.org/x/image/bmp.
package imagesource

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/dvocr/dvocr/internal/ocrerrors"
)

// SupportedExtensions lists the file extensions this package can decode.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Metadata captures lightweight file and pixel information about a decoded
// image.
type Metadata struct {
	Path        string
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// Load opens and decodes an image file, returning the decoded image and its
// metadata.
func Load(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, ocrerrors.NewArgumentError("imagesource.load", errors.New("empty path"))
	}
	if !IsSupported(path) {
		return nil, Metadata{}, ocrerrors.NewArgumentError("imagesource.load", fmt.Errorf("unsupported extension: %s", filepath.Ext(path)))
	}

	f, err := os.Open(path) //nolint:gosec // path is operator-supplied input, not web-facing
	if err != nil {
		return nil, Metadata{}, ocrerrors.NewArgumentError("imagesource.load", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, Metadata{}, ocrerrors.NewArgumentError("imagesource.load", err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, Metadata{}, ocrerrors.NewArgumentError("imagesource.decode", err)
	}

	return img, metadataFor(path, format, fi.Size(), img), nil
}

// Decode decodes an image from r without touching the filesystem, for
// server upload handling.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", ocrerrors.NewArgumentError("imagesource.decode", err)
	}
	return img, format, nil
}

func metadataFor(path, format string, size int64, img image.Image) Metadata {
	b := img.Bounds()
	aspect := 0.0
	if b.Dy() > 0 {
		aspect = float64(b.Dx()) / float64(b.Dy())
	}
	return Metadata{
		Path:        path,
		Format:      format,
		SizeBytes:   size,
		Width:       b.Dx(),
		Height:      b.Dy(),
		AspectRatio: aspect,
	}
}
