// Package security implements the security envelope: signing,
// verification, certificate-chain validation, and AT rotation privacy
// strategies (§4.6).
package security

import "crypto/sha256"

// HashedId8Len is the wire size of a HashedId8.
const HashedId8Len = 8

// HashedId8 is an 8-byte truncation of SHA-256(certificate), used as a
// compact certificate identifier (§9 glossary).
type HashedId8 [HashedId8Len]byte

// HashCertificate computes the HashedId8 of a DER-encoded certificate.
func HashCertificate(der []byte) HashedId8 {
	sum := sha256.Sum256(der)
	var h HashedId8
	copy(h[:], sum[len(sum)-HashedId8Len:])
	return h
}
