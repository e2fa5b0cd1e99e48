// Package fingerprint provides a deterministic content ID for dataset files.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const prefix = "sha256:"

// File returns the content fingerprint of the file at path.
// Same bytes always yield the same fingerprint, regardless of path or mtime.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the fingerprint of b.
func Bytes(b []byte) string {
	hash := sha256.Sum256(b)
	return prefix + hex.EncodeToString(hash[:])
}

// ETag returns fp combined with a view key as a quoted strong entity tag.
func ETag(fp, view string) string {
	hash := sha256.Sum256([]byte(fp + "\x00" + view))
	return `"` + hex.EncodeToString(hash[:12]) + `"`
}
