package constants

import "strings"

// PDFExtension is the only upload extension the extraction pipeline accepts.
const PDFExtension = "pdf"

// PDFMagic is the signature every PDF file starts with.
const PDFMagic = "%PDF-"

// AllowedExtensions holds the extensions accepted by the upload and watch paths.
var AllowedExtensions = map[string]struct{}{
	PDFExtension: {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
