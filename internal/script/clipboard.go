// internal/script/clipboard.go
package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

var ErrEmptyClipboard = errors.New("clipboard is empty")

// readClipboard is swapped in tests
var readClipboard = clipboard.ReadAll

// Paste returns the clipboard text, normalized like a loaded file
func Paste() (string, error) {
	text, err := readClipboard()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyClipboard
	}
	return text, nil
}

// Copy puts text on the clipboard
func Copy(text string) error {
	return clipboard.WriteAll(text)
}
