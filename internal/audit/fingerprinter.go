package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a stable identifier for uploaded content, so the same
// document can be correlated across audit entries without storing the payload.
func Fingerprint(content []byte) string {
	hash := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(hash[:])
}
