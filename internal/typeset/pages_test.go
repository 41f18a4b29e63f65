package typeset

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal letter-size PDF with one line of text per page at the given baselines.
func buildPDF(t *testing.T, baselines ...float64) []byte {
	t.Helper()
	return buildPDFWithBox(t, "[0 0 612 792]", false, baselines...)
}

// buildPDFWithBox is buildPDF with a chosen MediaBox, set on each page or
// only on the /Pages node so pages inherit it.
func buildPDFWithBox(t *testing.T, box string, onParent bool, baselines ...float64) []byte {
	t.Helper()
	require.NotEmpty(t, baselines)

	pagesBox, pageBox := "", " /MediaBox "+box
	if onParent {
		pagesBox, pageBox = " /MediaBox "+box, ""
	}

	n := len(baselines)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs
	var objects []string
	kids := ""
	for i := range baselines {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d%s >>", kids, n, pagesBox),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, y := range baselines {
		content := fmt.Sprintf("BT /F1 12 Tf 72 %.0f Td (Line %d) Tj ET", y, i+1)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageBox, 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestCountPages_ReadsPageTree(t *testing.T) {
	for _, pages := range []int{1, 2, 3} {
		baselines := make([]float64, pages)
		for i := range baselines {
			baselines[i] = 700
		}
		n, err := CountPages(buildPDF(t, baselines...))
		require.NoError(t, err)
		assert.Equal(t, pages, n)
	}
}

func TestCountPagesWithReader_RejectsGarbage(t *testing.T) {
	_, err := countPagesWithReader([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestLastPageFill(t *testing.T) {
	full := LastPageFill(buildPDF(t, 700, 72))
	sparse := LastPageFill(buildPDF(t, 700, 700))

	assert.InDelta(t, (792.0-72.0)/792.0, full, 1e-6)
	assert.InDelta(t, (792.0-700.0)/792.0, sparse, 1e-6)
	assert.Greater(t, full, sparse)
}

func TestLastPageFill_MediaBox(t *testing.T) {
	tests := []struct {
		name     string
		box      string
		onParent bool
		want     float64
	}{
		{name: "a4 on page", box: "[0 0 595 842]", want: (842.0 - 100.0) / 842.0},
		{name: "inherited from page tree", box: "[0 0 612 1000]", onParent: true, want: (1000.0 - 100.0) / 1000.0},
		{name: "degenerate box falls back to letter", box: "[0 0 612 0]", want: (792.0 - 100.0) / 792.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill := LastPageFill(buildPDFWithBox(t, tt.box, tt.onParent, 700, 100))
			assert.InDelta(t, tt.want, fill, 1e-6)
		})
	}
}

func TestLastPageFill_UnreadableIsConservative(t *testing.T) {
	assert.Equal(t, 1.0, LastPageFill([]byte("garbage")))
}

func TestFillFromBaselines(t *testing.T) {
	assert.Equal(t, 0.0, fillFromBaselines(nil, 792))
	assert.Equal(t, 0.5, fillFromBaselines([]float64{600, 396}, 792))
	assert.Equal(t, 1.0, fillFromBaselines([]float64{-10}, 792))
	assert.Equal(t, 0.0, fillFromBaselines([]float64{900}, 792))
}

func TestParsePdfinfoPages(t *testing.T) {
	n, err := parsePdfinfoPages("Title: resume\nPages:          2\nEncrypted: no\n")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = parsePdfinfoPages("Title: resume\n")
	assert.Error(t, err)
}
