package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// credential returns the secret presented with the request: the bearer
// token when an Authorization header is present, else the secret query
// parameter.
func credential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return token
	}
	return r.URL.Query().Get("secret")
}

// secretsEqual compares fixed-size digests so timing reveals neither
// content nor length.
func secretsEqual(presented, expected string) bool {
	a := blake2b.Sum256([]byte(presented))
	b := blake2b.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
