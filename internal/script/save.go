// internal/script/save.go
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Save writes text to path as plain text. The file is replaced atomically so
// a watcher never sees a half-written script.
func Save(path, text string) error {
	absPath, err := ResolvePath(path)
	if err != nil {
		return err
	}
	if filepath.Ext(absPath) == "" {
		absPath += ".txt"
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := atomic.WriteFile(absPath, strings.NewReader(text)); err != nil {
		return fmt.Errorf("failed to save script: %w", err)
	}
	return nil
}
