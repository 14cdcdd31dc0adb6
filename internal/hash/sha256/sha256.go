// Package sha256 fingerprints documents so stores can tell a changed
// document from a rewrite of the same content.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

// Sum returns the hex SHA-256 digest of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode marshals doc to JSON and returns the bytes with their digest.
// Equal documents always produce equal digests.
func Encode(doc post.Document) ([]byte, string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document %s: %w", doc.URL, err)
	}
	return body, Sum(body), nil
}
