package constants

import "strings"

// AllowedExtensions holds the file extensions the batch universe listing
// accepts. Plain-text files are supported so pre-converted application text
// can bypass the PDF reader.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether the (dotted or bare) extension is supported.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
