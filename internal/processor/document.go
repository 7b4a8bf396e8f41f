// document.go - Uploaded document classification and normalization entry point

package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bosocmputer/document_gateway/internal/common"
)

// Category is the handling path chosen for an upload.
type Category string

const (
	CategoryImage Category = "image"
	CategoryPDF   Category = "pdf"
)

// UnsupportedFileTypeMessage is returned to clients for extensions we cannot handle.
const UnsupportedFileTypeMessage = "Unsupported file type. Use PNG, JPG, TIFF, or PDF."

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoPages             = errors.New("PDF has no pages")
	ErrEmptyDocument       = errors.New("document is empty")
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".tif":  true,
}

// DocumentInput is one uploaded file. It lives only for the duration of a request.
type DocumentInput struct {
	Data     []byte
	Filename string
}

// NormalizedImage is the single still frame sent to the model.
// PageProcessed is 1 when the image was rendered from a PDF and 0 otherwise.
type NormalizedImage struct {
	Data          []byte
	MIMEType      string
	PageProcessed int
	Width         int
	Height        int
}

// Classify decides the handling path from the filename extension.
func Classify(filename string) (Category, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch {
	case imageExtensions[ext]:
		return CategoryImage, nil
	case ext == ".pdf":
		return CategoryPDF, nil
	default:
		return "", &common.AppError{
			Kind:    common.KindValidation,
			Message: UnsupportedFileTypeMessage,
			Cause:   fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext),
		}
	}
}

// Options controls how documents are normalized.
type Options struct {
	MaxDimension int  // longest side after resize, 0 disables resizing
	Enhance      bool // quality-adaptive contrast and sharpening
	JPEGQuality  int
	PDFRenderDPI int
	PdftoppmPath string
}

// Normalizer turns uploads into a single JPEG frame.
type Normalizer struct {
	opts   Options
	runner Runner
}

// NewNormalizer creates a Normalizer. A nil runner executes real commands.
func NewNormalizer(opts Options, runner Runner) *Normalizer {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 95
	}
	if opts.PDFRenderDPI <= 0 {
		opts.PDFRenderDPI = 150
	}
	if opts.PdftoppmPath == "" {
		opts.PdftoppmPath = "pdftoppm"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Normalizer{opts: opts, runner: runner}
}

// Normalize converts an upload into the image payload for the model.
// Unsupported extensions yield a validation error; anything that fails after
// classification is a processing error.
func (n *Normalizer) Normalize(ctx context.Context, in DocumentInput) (*NormalizedImage, error) {
	category, err := Classify(in.Filename)
	if err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, common.NewProcessingError("Uploaded file is empty", ErrEmptyDocument)
	}

	rc := common.FromContext(ctx)

	switch category {
	case CategoryPDF:
		pages, err := CountPDFPages(in.Data)
		if err != nil {
			return nil, common.NewProcessingError(fmt.Sprintf("Failed to read PDF: %v", err), err)
		}
		if pages == 0 {
			return nil, common.NewProcessingError("Failed to process PDF: no pages found in PDF", ErrNoPages)
		}
		rc.LogInfo("PDF %s has %d page(s), rendering page 1", in.Filename, pages)

		rc.StartSubStep("rasterize_pdf")
		raster, err := n.renderFirstPage(ctx, in.Data)
		if err != nil {
			rc.EndSubStep("failed")
			return nil, common.NewProcessingError(fmt.Sprintf("Failed to render PDF: %v", err), err)
		}
		rc.EndSubStep(fmt.Sprintf("%d bytes", len(raster)))

		img, err := n.normalizeImage(ctx, raster)
		if err != nil {
			return nil, common.NewProcessingError(fmt.Sprintf("Failed to process rendered PDF page: %v", err), err)
		}
		img.PageProcessed = 1
		return img, nil

	default:
		img, err := n.normalizeImage(ctx, in.Data)
		if err != nil {
			return nil, common.NewProcessingError(fmt.Sprintf("Failed to process image: %v", err), err)
		}
		return img, nil
	}
}
