//go:build !linux && !darwin

package bundler

import "os"

// MmapExecutable falls back to a plain read on platforms x/sys/unix
// doesn't cover; the footer-detection contract (spec.md §4.6/§6) only
// cares about the resulting byte slice, not how it was obtained.
func MmapExecutable(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Unmap is a no-op for the plain-read fallback.
func Unmap(data []byte) error { return nil }
