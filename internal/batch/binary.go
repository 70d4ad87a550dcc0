package batch

import (
	"strings"
	"unicode/utf8"
)

// ShouldSkipFile reports whether an artifact's content is unsuitable as
// model input. The name plays no part: plain text stays an artifact
// whatever its extension.
func ShouldSkipFile(content []byte) bool {
	return IsBinaryFile(string(content))
}

// IsBinaryFile checks if content is likely binary (non-text)
func IsBinaryFile(content string) bool {
	if len(content) == 0 {
		return false
	}

	// Check for null bytes, which are common in binary files
	if strings.Contains(content, "\x00") {
		return true
	}

	// Limit the sample size to avoid processing very large files completely
	sampleSize := 512
	if len(content) < sampleSize {
		sampleSize = len(content)
	}

	sample := content[:sampleSize]
	nonPrintable := 0

	for i, r := range sample {
		if r == utf8.RuneError && i >= sampleSize-utf8.UTFMax {
			// rune cut by the sample boundary
			continue
		}
		if (r < 32 && r != 9 && r != 10 && r != 13) || r == 127 || r == utf8.RuneError {
			nonPrintable++
		}
	}

	// If more than 30% of characters are non-printable, consider it binary
	return float64(nonPrintable)/float64(sampleSize) > 0.3
}
