package render

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Export formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatPDF  = "pdf"
)

// FormatFromPath maps a file extension to an export format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (use .png, .jpg or .pdf)", filepath.Ext(path))
	}
}

// Encode writes img to w as PNG or JPEG.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG, "jpg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(92))
	default:
		return fmt.Errorf("cannot stream format %q", format)
	}
}

// Save writes img to path, picking the format from the extension.
func Save(img image.Image, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if format == FormatPDF {
		return SavePDF(img, path)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SavePDF writes img as a single-page PDF.
func SavePDF(img image.Image, path string) error {
	tmpDir, err := os.MkdirTemp("", "hullrect-pdf-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	pngPath := filepath.Join(tmpDir, "scene.png")
	if err := imaging.Save(img, pngPath); err != nil {
		return fmt.Errorf("stage page image: %w", err)
	}
	if err := api.ImportImagesFile([]string{pngPath}, path, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// PageCount reports the number of pages of a PDF written by SavePDF.
func PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}
