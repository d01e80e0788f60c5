package api

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex BLAKE3 digest of content.
func Fingerprint(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the tab's path and content. Two loads of the same
// unchanged file produce the same value.
func (t Tab) Fingerprint() string {
	h := blake3.New()
	h.Write([]byte(t.Path))
	h.Write([]byte{0})
	h.Write([]byte(t.Content))
	return hex.EncodeToString(h.Sum(nil))
}
