package utils

import (
	"crypto/rand"
	"math/big"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferenceGenerator produces order references of the requested length.
type ReferenceGenerator func(length int) (string, error)

// GenerateReference returns a random base-36 code. Uniqueness is not
// guaranteed here; the orders.reference unique index is the final arbiter.
func GenerateReference(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	max := big.NewInt(int64(len(referenceAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}
