package typeset

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// US letter height in points, used when a page has no usable MediaBox.
const defaultPageHeight = 792.0

// CountPages counts the pages of a PDF. It reads the page tree directly and
// falls back to pdfinfo, then ghostscript.
func CountPages(data []byte) (int, error) {
	if n, err := countPagesWithReader(data); err == nil {
		return n, nil
	}

	dir, err := os.MkdirTemp("", "onepage-pages-*")
	if err != nil {
		return 0, &PageCountError{Message: "failed to create temporary directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(dir) }()
	path := filepath.Join(dir, pdfName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, &PageCountError{Message: "failed to write PDF", Cause: err}
	}

	if n, err := countPagesWithPdfinfo(path); err == nil {
		return n, nil
	}
	if n, err := countPagesWithGhostscript(path); err == nil {
		return n, nil
	}
	return 0, &PageCountError{
		Message: "PDF is unreadable and neither pdfinfo nor ghostscript is available",
	}
}

func countPagesWithReader(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n = reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("PDF reports %d pages", n)
	}
	return n, nil
}

// countPagesWithPdfinfo uses pdfinfo to count PDF pages
func countPagesWithPdfinfo(pdfPath string) (int, error) {
	output, err := exec.Command("pdfinfo", pdfPath).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo command failed: %w", err)
	}
	return parsePdfinfoPages(string(output))
}

func parsePdfinfoPages(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			if count, err := strconv.Atoi(parts[1]); err == nil {
				return count, nil
			}
		}
	}
	return 0, fmt.Errorf("could not parse page count from pdfinfo output")
}

// countPagesWithGhostscript uses ghostscript to count PDF pages
func countPagesWithGhostscript(pdfPath string) (int, error) {
	script := fmt.Sprintf("(%s) (r) file runpdfbegin pdfpagecount = quit", pdfPath)
	output, err := exec.Command("gs", "-q", "-dNODISPLAY", "-dNOSAFER", "-c", script).Output()
	if err != nil {
		return 0, fmt.Errorf("ghostscript command failed: %w", err)
	}
	outputStr := strings.TrimSpace(string(output))
	count, err := strconv.Atoi(outputStr)
	if err != nil {
		return 0, fmt.Errorf("could not parse page count from ghostscript output: %s", outputStr)
	}
	return count, nil
}

// LastPageFill estimates how much of the last page is used, in [0, 1], from the
// lowest text baseline. Unreadable pages report 1 so that penalties stay conservative.
func LastPageFill(data []byte) (fill float64) {
	defer func() {
		if r := recover(); r != nil {
			fill = 1
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 1
	}
	n := reader.NumPage()
	if n <= 0 {
		return 1
	}
	page := reader.Page(n)
	if page.V.IsNull() {
		return 1
	}

	height := mediaBoxHeight(page.V)

	texts := page.Content().Text
	ys := make([]float64, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			ys = append(ys, t.Y)
		}
	}
	return fillFromBaselines(ys, height)
}

// mediaBoxHeight reads /MediaBox from the page or the nearest ancestor that
// defines it, since page attributes are inherited through the page tree.
func mediaBoxHeight(v pdf.Value) float64 {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		if box := v.Key("MediaBox"); box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
			break
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}

// fillFromBaselines converts the lowest baseline into a used fraction of the page.
func fillFromBaselines(ys []float64, height float64) float64 {
	if len(ys) == 0 || height <= 0 {
		return 0
	}
	lowest := ys[0]
	for _, y := range ys[1:] {
		if y < lowest {
			lowest = y
		}
	}
	fill := (height - lowest) / height
	switch {
	case fill < 0:
		return 0
	case fill > 1:
		return 1
	}
	return fill
}
