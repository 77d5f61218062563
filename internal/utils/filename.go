package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength bounds sanitized names in bytes, extension included.
const MaxFilenameLength = 200

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f\x7f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// archiveExtensions are matched longest first so ".tar.gz" is not split.
var archiveExtensions = []string{".tar.gz", ".tgz", ".zip"}

// SanitizeFilename reduces a client supplied file name to a safe base name.
// Directory components from either separator style are dropped, control and
// reserved characters removed and whitespace collapsed. The archive extension
// survives truncation so the container format can still be detected.
func SanitizeFilename(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}

	filename = strings.ToValidUTF8(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = strings.TrimSpace(filename)
	filename = strings.TrimLeft(filename, ".")

	if filename == "" {
		return "archive"
	}

	if len(filename) > MaxFilenameLength {
		ext := archiveExtension(filename)
		stem := truncateUTF8(filename[:len(filename)-len(ext)], MaxFilenameLength-len(ext))
		filename = strings.TrimSpace(stem) + ext
	}

	return filename
}

func archiveExtension(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return filename[len(filename)-len(ext):]
		}
	}
	return ""
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
