package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// RememberTokenBytes is the byte size of generated remember tokens.
const RememberTokenBytes = 32

// MakeRememberToken is a helper to generate remember tokens of a
// predetermined byte size.
func MakeRememberToken() (string, error) {
	return bytesToString(RememberTokenBytes)
}

// NBytes returns the number of bytes used in a base64 URL encoded string.
func NBytes(base64String string) (int, error) {
	b, err := base64.URLEncoding.DecodeString(base64String)
	if err != nil {
		return -1, err
	}
	return len(b), nil
}

// bytes generates n random bytes or returns an error. It uses the
// crypto/rand package, so it can be used for things like remember tokens.
func bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// bytesToString generates n random bytes and returns them base64 URL encoded.
func bytesToString(n int) (string, error) {
	b, err := bytes(n)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
