package crypto

import (
	"crypto/rand"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	idSize     = 22 // 22 * 6 = 132 bits (uuid is 128 bits) of entropy
	idMask     = len(idAlphabet) - 1
)

// NewID returns a random URL-safe id of idSize characters. Session ids are
// minted here.
func NewID() (string, error) {
	buf := make([]byte, idSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	// The alphabet has 64 symbols, so masking to 6 bits is uniform.
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)&idMask]
	}
	return string(buf), nil
}
