package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, nonEmpty(string(errb)), err
	}
	text = string(out)
	// form feed separates pages
	pages = 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	return text, pages, nil, nil
}

// pdfToOCR rasterizes every page and runs tesseract on each. The returned
// confidence is the mean TSV word confidence, or 0 when not enabled.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, conf float32, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "invx-pp-*")
	if err != nil {
		return "", 0, 0, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", 0, 0, nonEmpty(string(errb)), err
	}

	// prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	var confSum float32
	var confN int
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)

		if e.cfg.EnableTSVConfidence {
			c, w, err := e.tesseractTSVConfidence(ctx, img)
			warns = append(warns, w...)
			if err == nil && c > 0 {
				confSum += c
				confN++
			}
		}
	}
	if b.Len() == 0 {
		return "", len(matches), 0, warns, fmt.Errorf("tesseract produced no text")
	}
	if confN > 0 {
		conf = confSum / float32(confN)
	}
	return b.String(), len(matches), conf, warns, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", nonEmpty(string(errb)), fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// tesseractTSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, nonEmpty(string(errb)), fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil, nil
}

// meanTSVConfidence averages the conf column (11th) of a tesseract TSV
// dump, skipping the header and -1 rows. Result is in 0..1.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := strings.TrimSpace(cols[10])
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}

func nonEmpty(s string) []string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return []string{s}
}
