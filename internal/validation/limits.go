// Package validation checks documents before they are prepared.
package validation

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// MaxDocumentBytes is the maximum size of one document (16MB)
	MaxDocumentBytes = 16 << 20

	// MaxSourceLength is the maximum length of a document source name
	MaxSourceLength = 1024
)

var (
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")
	ErrInvalidUTF8      = errors.New("document is not valid UTF-8")
	ErrSourceTooLong    = errors.New("source exceeds maximum length")
)

// ValidateDocument checks size limits and encoding. Span offsets are byte
// offsets into valid UTF-8, so ill-formed input is rejected rather than
// segmented.
func ValidateDocument(source, text string) error {
	if len(source) > MaxSourceLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrSourceTooLong, len(source), MaxSourceLength)
	}

	if len(text) > MaxDocumentBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, len(text), MaxDocumentBytes)
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: first bad byte at offset %d", ErrInvalidUTF8, firstInvalid(text))
	}

	return nil
}

func firstInvalid(text string) int {
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}
