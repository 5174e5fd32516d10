package constants

import "strings"

// SupportedMIMETypes holds the allowed document types for invoice ingestion.
var SupportedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
}

// SupportedMIME checks if a MIME type is in the allowed set.
func SupportedMIME(mimeType string) bool {
	_, ok := SupportedMIMETypes[NormalizeMIME(mimeType)]
	return ok
}

// NormalizeMIME lowercases a MIME type and strips any parameters
// (e.g. "application/pdf; name=x" -> "application/pdf").
func NormalizeMIME(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
