// Package shared provides common utility functions used across multiple
// packages in the component-manager codebase.
package shared

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName case-folds a component identity and strips surrounding
// whitespace and slashes, so "Espressif/LED_Strip" and
// "espressif/led_strip" name the same component.
func NormalizeName(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), "/")
	return cases.Fold().String(trimmed)
}

// DirName maps a component identity to a directory name that is safe
// on every platform ("owner/name" becomes "owner__name").
func DirName(name string) string {
	return strings.ReplaceAll(NormalizeName(name), "/", "__")
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
