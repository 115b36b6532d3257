// internal/script/loader.go
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxFileSize is the largest script we'll load (1MB)
const MaxFileSize = 1024 * 1024

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrIsDirectory       = errors.New("path is a directory")
	ErrSensitivePath     = errors.New("access to sensitive path denied")
	ErrNotText           = errors.New("file is not valid UTF-8 text")
)

// Format is a script file type
type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
	FormatRTF
)

// DetectFormat picks the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".txt", ".text":
		return FormatPlain, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".rtf":
		return FormatRTF, nil
	default:
		return FormatPlain, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a script file and converts it to plain text
func Load(path string) (string, error) {
	absPath, err := ResolvePath(path)
	if err != nil {
		return "", err
	}

	format, err := DetectFormat(absPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, absPath)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%w (%d bytes, max %d)", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	// RTF may carry raw 8-bit ANSI bytes; Convert decodes those
	if format != FormatRTF && !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s", ErrNotText, absPath)
	}

	return Convert(content, format), nil
}

// Convert turns raw file content into teleprompter text
func Convert(content []byte, format Format) string {
	var text string
	switch format {
	case FormatMarkdown:
		text = MarkdownToText(content)
	case FormatRTF:
		if !utf8.Valid(content) {
			text = RTFToText(decodeCP1252(content))
		} else {
			text = RTFToText(string(content))
		}
	default:
		text = string(content)
	}
	return normalizeNewlines(text)
}

// ResolvePath makes path absolute, expands ~ and refuses sensitive locations
func ResolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if isSensitivePath(absPath) {
		return "", ErrSensitivePath
	}
	return absPath, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// isSensitivePath returns true for paths that should never be read or written
func isSensitivePath(path string) bool {
	sensitive := []string{
		"/.ssh/",
		"/.gnupg/",
		"/.aws/",
		"/.config/gcloud",
		"/etc/shadow",
		"/etc/passwd",
		"/.netrc",
		"/.env",
		".pem",
		".key",
		"id_rsa",
		"id_ed25519",
	}

	lowerPath := strings.ToLower(path)
	for _, s := range sensitive {
		if strings.Contains(lowerPath, s) {
			return true
		}
	}
	return false
}
