package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a single page 1, validating UTF-8.
// Invalid sequences are replaced with the replacement character.
func extractPlain(content []byte) ([]Page, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("empty document")
	}
	return []Page{{Number: 1, Text: text}}, nil
}
