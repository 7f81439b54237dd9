package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"io"

	"github.com/veloce-go/geonet/coreerr"
)

// KeyType identifies the elliptic curve and digest pairing a
// certificate's key uses (§4.6: "ECDSA signature (P-256, P-384, or
// Brainpool variants) whose digest is SHA-256 or SHA-384 paired to the
// curve").
type KeyType uint8

const (
	KeyTypeNistP256 KeyType = iota
	KeyTypeNistP384
	KeyTypeBrainpoolP256r1
	KeyTypeBrainpoolP384r1
)

func (k KeyType) String() string {
	switch k {
	case KeyTypeNistP256:
		return "nistp256"
	case KeyTypeNistP384:
		return "nistp384"
	case KeyTypeBrainpoolP256r1:
		return "brainpoolp256r1"
	case KeyTypeBrainpoolP384r1:
		return "brainpoolp384r1"
	}
	return "unknown"
}

// Curve returns the standard-library curve backing k, or an Unsupported
// error for curves the Go ecosystem has no standard-library or
// pack-available implementation of (the Brainpool family — neither
// crypto/elliptic nor the pack's other examples carry one). Recognising
// these key types structurally but refusing to operate on them matches
// the specification's own "Unsupported — recognised but not
// implementable" error kind (§7) rather than treating it as a defect.
func (k KeyType) Curve() (elliptic.Curve, error) {
	switch k {
	case KeyTypeNistP256:
		return elliptic.P256(), nil
	case KeyTypeNistP384:
		return elliptic.P384(), nil
	case KeyTypeBrainpoolP256r1, KeyTypeBrainpoolP384r1:
		return nil, coreerr.New(coreerr.Unsupported, "security: brainpool curves not implemented")
	}
	return nil, coreerr.New(coreerr.Unsupported, "security: unrecognised key type")
}

// GenerateKey creates a new private key of type k.
func GenerateKey(k KeyType, rand io.Reader) (*ecdsa.PrivateKey, error) {
	curve, err := k.Curve()
	if err != nil {
		return nil, err
	}
	return ecdsa.GenerateKey(curve, rand)
}
