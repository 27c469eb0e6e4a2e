package task

import (
	"crypto/sha1"
	"encoding/hex"
)

const (
	DefaultDigestLength = 6
	maxDigestLength     = sha1.Size * 2
)

// ID derives the task identifier from brief and email using the default
// digest length.
func ID(brief, email string) string {
	return IDWithLength(brief, email, DefaultDigestLength)
}

// IDWithLength returns "task-" followed by the first n hex characters of
// sha1(brief + email). An empty brief hashes as DefaultBrief. n is clamped to
// the digest size.
func IDWithLength(brief, email string, n int) string {
	if brief == "" {
		brief = DefaultBrief
	}
	if n <= 0 {
		n = DefaultDigestLength
	}
	if n > maxDigestLength {
		n = maxDigestLength
	}
	sum := sha1.Sum([]byte(brief + email))
	return "task-" + hex.EncodeToString(sum[:])[:n]
}
