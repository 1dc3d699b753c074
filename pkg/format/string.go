package format

import (
	"strings"

	"github.com/acarl005/stripansi"
)

const maxLineLength = 1024

// CleanLine makes user controlled text safe for a single log line: ANSI
// sequences are stripped, line breaks flattened and the length capped.
func CleanLine(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = stripansi.Strip(text)
	if len(text) > maxLineLength {
		text = text[:maxLineLength]
	}
	return text
}

func ContainsI(a string, b string) bool {
	return strings.Contains(
		strings.ToLower(a),
		strings.ToLower(b),
	)
}
