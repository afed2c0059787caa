// Package signer computes object-store request signatures. Only the media
// proxy holds the secret; nothing on the client side imports this package.
package signer

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign returns the hex SHA-1 of the params sorted by name, joined as
// k=v&k=v, with secret appended. Empty values are skipped.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
