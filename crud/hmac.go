package crud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HMAC is a wrapper around the crypto/hmac package making it easier to use.
type HMAC struct {
	key []byte
}

// newHMAC creates and returns a new HMAC object.
func newHMAC(key string) HMAC {
	return HMAC{
		key: []byte(key),
	}
}

// hash hashes an input string using HMAC with the secret key
// provided when the HMAC object was created in NewUserService.
// Each call builds its own hash state, so concurrent callers
// (every request runs this via the remember-token lookup) never
// share mutable state.
func (h HMAC) hash(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	b := mac.Sum(nil)
	return base64.URLEncoding.EncodeToString(b)
}
