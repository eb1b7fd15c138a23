package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const sampleText = "INVOICE\nInvoice #: TEST-123\nDate: 2025-07-30\nBill To: Test Company\nAmount: $500.00"

type call struct {
	name string
	args []string
}

// stubRunner answers pdftotext/pdftoppm/tesseract without running anything.
type stubRunner struct {
	calls     []call
	pdftotext string
	textErr   error
	ocrText   string
	pages     int
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name, args})
	switch name {
	case "pdftotext":
		if s.textErr != nil {
			return nil, []byte("Syntax Error"), s.textErr
		}
		return []byte(s.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			if err := os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if args[len(args)-1] == "tsv" {
			tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
				"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tINVOICE\n" +
				"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tTotal\n"
			return []byte(tsv), nil, nil
		}
		return []byte(s.ocrText), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func (s *stubRunner) names() []string {
	var out []string
	for _, c := range s.calls {
		out = append(out, c.name)
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestExecModeUsesPdftotext(t *testing.T) {
	r := &stubRunner{pdftotext: sampleText + "\n\fPage two with enough words to matter"}
	e := NewExtractorWithRunner(Config{Mode: ModeExec, MinText: 10}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "a.pdf", "%PDF-fake"))
	require.NoError(t, err)
	assert.Equal(t, MethodPdfText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Contains(t, res.Lines(), "Invoice #: TEST-123")
	assert.Equal(t, []string{"pdftotext"}, r.names())
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}, r.calls[0].args[:5])
}

func TestExecModeFallsBackToTesseract(t *testing.T) {
	r := &stubRunner{pdftotext: "  \n", ocrText: sampleText, pages: 2}
	e := NewExtractorWithRunner(Config{Mode: ModeExec, MinText: 10, EnableTSVConfidence: true}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "scan.pdf", "%PDF-fake"))
	require.NoError(t, err)
	assert.Equal(t, MethodPdfOCR, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, strings.Count(res.Text, "TEST-123"))
	assert.Greater(t, res.Confidence, float32(0))
	assert.LessOrEqual(t, res.Confidence, float32(1))
	assert.Equal(t, "pdftoppm", r.names()[1])
}

func TestAutoModeFallsBackWhenNativeFails(t *testing.T) {
	r := &stubRunner{pdftotext: sampleText}
	e := NewExtractorWithRunner(Config{Mode: ModeAuto, MinText: 10}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "broken.pdf", "not really a pdf"))
	require.NoError(t, err)
	assert.Equal(t, MethodPdfText, res.Method)
	require.NotEmpty(t, res.Warnings)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "native:"))
}

func TestNativeModeDoesNotShellOut(t *testing.T) {
	r := &stubRunner{pdftotext: sampleText}
	e := NewExtractorWithRunner(Config{Mode: ModeNative}, r, nil)

	_, err := e.Extract(context.Background(), writeFile(t, "broken.pdf", "not really a pdf"))
	require.Error(t, err)
	assert.Empty(t, r.calls)
}

func TestAllToolsFail(t *testing.T) {
	r := &stubRunner{textErr: errors.New("exit 1"), pages: 0}
	e := NewExtractorWithRunner(Config{Mode: ModeExec}, r, nil)

	_, err := e.Extract(context.Background(), writeFile(t, "x.pdf", "x"))
	require.Error(t, err)
}

func TestTextFile(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &stubRunner{}, nil)
	res, err := e.Extract(context.Background(), writeFile(t, "inv.txt", "  INVOICE\r\n\r\n\r\n\r\nTotal:\t\t$5.00  "))
	require.NoError(t, err)
	assert.Equal(t, MethodTextFile, res.Method)
	assert.Equal(t, "INVOICE\n\nTotal: $5.00", res.Text)
	assert.Equal(t, []string{"INVOICE", "Total: $5.00"}, res.Lines())
}

func TestUnsupportedExtension(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &stubRunner{}, nil)
	_, err := e.Extract(context.Background(), "photo.heic")
	assert.ErrorIs(t, err, common.ErrUnsupportedFile)
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("hello")
	high := heuristicConfidence(sampleText)
	assert.InDelta(t, 0.2, low, 1e-6)
	assert.Greater(t, high, low)
}

func TestMeanTSVConfidence(t *testing.T) {
	tsv := "header\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t80\ta\n5\t1\t1\t1\t1\t2\t0\t0\t1\t1\t-1\t\n5\t1\t1\t1\t1\t3\t0\t0\t1\t1\t60\tb\n"
	assert.InDelta(t, 0.7, meanTSVConfidence(tsv), 1e-6)
}
