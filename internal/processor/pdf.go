// pdf.go - PDF inspection and first-page rasterization

package processor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages opens the document and returns its page count.
func CountPDFPages(data []byte) (pages int, err error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}

	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// renderFirstPage rasterizes page 1 to PNG with pdftoppm inside a scratch directory.
func (n *Normalizer) renderFirstPage(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "docgw-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp PDF: %w", err)
	}

	// pdftoppm -f 1 -l 1 -r <dpi> -png -singlefile <in.pdf> <dir/page>  ->  dir/page.png
	prefix := filepath.Join(dir, "page")
	args := []string{
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(n.opts.PDFRenderDPI),
		"-png", "-singlefile",
		in, prefix,
	}
	if _, stderr, err := n.runner.Run(ctx, n.opts.PdftoppmPath, args...); err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(msg, 512))
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	out, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	return out, nil
}
