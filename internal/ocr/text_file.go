package ocr

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// maxTextFileBytes guards against feeding huge dumps to the extractor.
const maxTextFileBytes = 5 << 20

func (e *Extractor) extractTextFile(path string) (Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Result{SourceType: constants.TEXT}, fmt.Errorf("stat text file: %w", err)
	}
	if st.Size() > maxTextFileBytes {
		return Result{SourceType: constants.TEXT}, fmt.Errorf("text file too large: %d bytes", st.Size())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{SourceType: constants.TEXT}, fmt.Errorf("read text file: %w", err)
	}
	var warns []string
	if !utf8.Valid(b) {
		warns = append(warns, "text file is not valid UTF-8")
	}
	txt := Normalize(string(b))
	return Result{
		Text:       txt,
		Pages:      1,
		SourceType: constants.TEXT,
		Method:     MethodTextFile,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}
