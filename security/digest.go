package security

import (
	"crypto/sha256"
	"crypto/sha512"
)

func sha256sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func sha384(data []byte) []byte {
	sum := sha512.Sum384(data)
	return sum[:]
}
