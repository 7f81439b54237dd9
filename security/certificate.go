package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/veloce-go/geonet/coreerr"
)

// Role identifies a certificate's position in the PKI hierarchy (§4.6).
type Role uint8

const (
	RoleRoot Role = iota
	RoleEnrolmentAuthority
	RoleEnrolmentCredential
	RoleAuthorizationAuthority
	RoleAuthorizationTicket
)

// Permission is an opaque application-permission tag; a certificate's
// Permissions must be a subset of its issuer's certificate-issue
// permissions (§4.6).
type Permission string

// Certificate is the subset of an ETSI certificate this implementation
// needs: identity, role, issuer reference, validity window, declared
// permissions, and the public key used to verify signatures it issues.
type Certificate struct {
	ID          HashedId8
	Role        Role
	Issuer      HashedId8 // zero value for self-signed Root certificates
	KeyType     KeyType
	PublicKey   *ecdsa.PublicKey
	NotBefore   time.Time
	NotAfter    time.Time
	Permissions []Permission
	// Raw is the encoded form this certificate's HashedId8/signature were
	// computed over.
	Raw []byte
}

func (c Certificate) selfSigned() bool { return c.Role == RoleRoot }

// Covers reports whether perm is among the permissions c declares.
func (c Certificate) Covers(perm Permission) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// permissionSubsetOf reports whether every permission in c is also
// present in issuer — the "permission envelope containment" check of
// §4.6.
func (c Certificate) permissionSubsetOf(issuer Certificate) bool {
	for _, p := range c.Permissions {
		if !issuer.Covers(p) {
			return false
		}
	}
	return true
}

// Store is identifier-indexed certificate storage: HashedId8 →
// Certificate, with issuer lookups by identifier rather than embedded
// pointers, avoiding reference cycles in the chain graph (§9 design
// note).
type Store struct {
	byID map[HashedId8]Certificate
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{byID: map[HashedId8]Certificate{}}
}

// Put records a certificate, keyed by its own ID.
func (s *Store) Put(c Certificate) { s.byID[c.ID] = c }

// Get looks up a certificate by ID.
func (s *Store) Get(id HashedId8) (Certificate, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// ValidateChain walks from c up to a self-signed Root certificate
// present in the store, checking at each step: issuer resolution,
// non-expiry relative to now, signature verification with the issuer's
// public key, and permission-subset containment (§4.6). A chain longer
// than maxDepth is rejected rather than walked indefinitely, guarding
// against a malformed or adversarial issuer cycle.
func (s *Store) ValidateChain(c Certificate, now time.Time, maxDepth int) error {
	cur := c

	for depth := 0; ; depth++ {
		if depth > maxDepth {
			return coreerr.New(coreerr.SecurityFailure, "security: certificate chain exceeds maximum depth")
		}

		if now.Before(cur.NotBefore) || now.After(cur.NotAfter) {
			return coreerr.New(coreerr.SecurityFailure, "security: certificate expired or not yet valid")
		}

		if cur.selfSigned() {
			if !verifySelfSigned(cur) {
				return coreerr.New(coreerr.SecurityFailure, "security: root certificate signature invalid")
			}
			return nil
		}

		issuer, ok := s.byID[cur.Issuer]
		if !ok {
			return coreerr.New(coreerr.SecurityFailure, "security: issuer certificate not found")
		}

		if !cur.permissionSubsetOf(issuer) {
			return coreerr.New(coreerr.SecurityFailure, "security: certificate permissions exceed issuer's")
		}

		if !verifyIssued(cur, issuer) {
			return coreerr.New(coreerr.SecurityFailure, "security: certificate signature does not verify against issuer")
		}

		cur = issuer
	}
}

// verifyIssued checks cur.Raw's signature (appended as the trailing
// (r||s) big-endian pair, curve-byte-length each, for this profile's
// in-memory Raw encoding) against issuer's public key.
func verifyIssued(cur, issuer Certificate) bool {
	return verifySignatureOver(cur.Raw, issuer.PublicKey)
}

func verifySelfSigned(root Certificate) bool {
	return verifySignatureOver(root.Raw, root.PublicKey)
}

// signedPortion splits raw into (to-be-signed bytes, r, s) assuming the
// trailing 2*byteLen bytes are the big-endian r||s pair over the curve
// byte length of pub.
func signedPortion(raw []byte, pub *ecdsa.PublicKey) (tbs []byte, r, sVal *big.Int, ok bool) {
	byteLen := (pub.Curve.Params().BitSize + 7) / 8
	sigLen := 2 * byteLen
	if len(raw) <= sigLen {
		return nil, nil, nil, false
	}

	tbs = raw[:len(raw)-sigLen]
	sig := raw[len(raw)-sigLen:]
	r = new(big.Int).SetBytes(sig[:byteLen])
	sVal = new(big.Int).SetBytes(sig[byteLen:])
	return tbs, r, sVal, true
}

func verifySignatureOver(raw []byte, pub *ecdsa.PublicKey) bool {
	if pub == nil {
		return false
	}
	tbs, r, s, ok := signedPortion(raw, pub)
	if !ok {
		return false
	}
	digest := digestFor(pub.Curve, tbs)
	return ecdsa.Verify(pub, digest, r, s)
}

// signRaw appends an ECDSA signature over tbs (in this profile's raw
// r||s encoding) using priv, returning the combined encoding.
func signRaw(tbs []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	digest := digestFor(priv.Curve, tbs)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ResourceError, "security: sign", err)
	}

	byteLen := (priv.Curve.Params().BitSize + 7) / 8
	out := make([]byte, len(tbs)+2*byteLen)
	copy(out, tbs)
	r.FillBytes(out[len(tbs) : len(tbs)+byteLen])
	s.FillBytes(out[len(tbs)+byteLen:])
	return out, nil
}

// digestFor selects SHA-256 for P-256-sized curves and SHA-384 for
// P-384-sized curves, pairing digest strength to curve strength (§4.6).
func digestFor(curve elliptic.Curve, data []byte) []byte {
	if curve.Params().BitSize > 256 {
		return sha384(data)
	}
	return sha256sum(data)
}
