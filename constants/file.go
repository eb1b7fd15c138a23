package constants

import "strings"

// FileTypes holds the source formats the OCR layer can produce text from.
const (
	PDF  = "PDF"
	TEXT = "TEXT"
)

// AllowedExtensions holds the default extensions picked up by batch scans.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"md":   {},
	"csv":  {},
	"json": {},
}

// MaxUploadBytesDefault mirrors the 10MB limit of the upload endpoint.
const MaxUploadBytesDefault = 10 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF, TEXT or "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "md", "csv", "json":
		return TEXT
	default:
		return ""
	}
}
