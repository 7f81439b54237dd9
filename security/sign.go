package security

import (
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/coreerr"
)

// DefaultCertInclusionInterval is the maximum gap between full-certificate
// inclusions; the digest form is used otherwise (§4.6).
const DefaultCertInclusionInterval = 450 * time.Millisecond

// Signer produces signed Envelopes using one active Authorization
// Ticket, alternating between a compact digest and the full certificate
// per the certificate-inclusion timer (§4.6).
type Signer struct {
	Cert                  Certificate
	Key                   *ecdsa.PrivateKey
	CertInclusionInterval time.Duration

	clock        clock.Clock
	lastInclude  time.Time
	forceInclude bool
}

// NewSigner builds a Signer for the given AT certificate and private
// key.
func NewSigner(cert Certificate, key *ecdsa.PrivateKey, clk clock.Clock) *Signer {
	if clk == nil {
		clk = clock.New()
	}
	interval := DefaultCertInclusionInterval
	return &Signer{Cert: cert, Key: key, CertInclusionInterval: interval, clock: clk}
}

// RequestCertInclusion forces the next Sign call to include the full
// certificate rather than its digest, used when a peer reports
// SignerCertificateNotFound (§4.6: "set next_cert_in_cam_at = 0").
func (s *Signer) RequestCertInclusion() { s.forceInclude = true }

// Rotate switches the signer to a newly-activated AT, used by the AT
// rotation privacy strategies (§4.6.1).
func (s *Signer) Rotate(cert Certificate, key *ecdsa.PrivateKey) {
	s.Cert = cert
	s.Key = key
}

// Sign produces an Envelope over payload for the given application
// identifier.
func (s *Signer) Sign(payload []byte, psid uint32) (Envelope, error) {
	now := s.clock.Now()

	env := Envelope{
		PSID:           psid,
		GenerationTime: now,
		PayloadHash:    digestFor(s.Key.Curve, payload),
		Payload:        payload,
	}

	include := s.forceInclude || s.lastInclude.IsZero() || now.Sub(s.lastInclude) >= s.CertInclusionInterval
	if include {
		env.SignerKind = SignerCertificate
		cert := s.Cert
		env.SignerCert = &cert
		s.lastInclude = now
		s.forceInclude = false
	} else {
		env.SignerKind = SignerDigest
		env.SignerDigest = s.Cert.ID
	}

	tbs := env.toBeSigned()
	digest := digestFor(s.Key.Curve, tbs)
	r, sVal, err := ecdsa.Sign(rand.Reader, s.Key, digest)
	if err != nil {
		return Envelope{}, coreerr.Wrap(coreerr.ResourceError, "security: sign envelope", err)
	}

	byteLen := (s.Key.Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*byteLen)
	r.FillBytes(sig[:byteLen])
	sVal.FillBytes(sig[byteLen:])
	env.Signature = sig

	return env, nil
}

// Verifier checks Envelopes against a trust store and a cache of
// already-validated certificates (§4.6).
type Verifier struct {
	Store    *Store
	Cache    *CertCache
	MaxDepth int
	clock    clock.Clock
}

// NewVerifier builds a Verifier. maxDepth bounds certificate-chain walks
// (§9 design note: avoid unbounded graph walks).
func NewVerifier(store *Store, cache *CertCache, maxDepth int, clk clock.Clock) *Verifier {
	if clk == nil {
		clk = clock.New()
	}
	return &Verifier{Store: store, Cache: cache, MaxDepth: maxDepth, clock: clk}
}

// Verify validates env's signer, certificate chain (when a full
// certificate is present), permission coverage, and generation-time
// freshness, then checks the ECDSA signature itself. requestInclusion
// is true exactly when the caller should ask the signer (on its next
// outgoing message) to include its full certificate — the
// SignerCertificateNotFound path (§4.6, §8 scenario 6).
func (v *Verifier) Verify(env Envelope, requiredPermission Permission, ageBound time.Duration) (payload []byte, requestInclusion bool, err error) {
	now := v.clock.Now()

	if now.Sub(env.GenerationTime) > ageBound {
		return nil, false, coreerr.New(coreerr.Stale, "security: envelope generation time outside freshness bound")
	}

	var cert Certificate
	switch env.SignerKind {
	case SignerDigest:
		c, ok := v.Cache.Get(env.SignerDigest)
		if !ok {
			return nil, true, coreerr.New(coreerr.SecurityFailure, "security: signer certificate not found")
		}
		cert = c

	case SignerCertificate:
		if env.SignerCert == nil {
			return nil, false, coreerr.New(coreerr.Malformed, "security: certificate signer kind with no certificate")
		}
		cert = *env.SignerCert
		if err := v.Store.ValidateChain(cert, now, v.MaxDepth); err != nil {
			return nil, false, err
		}
		v.Cache.Put(cert)

	default:
		return nil, false, coreerr.New(coreerr.Malformed, "security: unrecognised signer kind")
	}

	if !cert.Covers(requiredPermission) {
		return nil, false, coreerr.New(coreerr.SecurityFailure, "security: certificate does not cover required permission")
	}

	tbs := env.toBeSigned()
	digest := digestFor(cert.PublicKey.Curve, tbs)

	byteLen := (cert.PublicKey.Curve.Params().BitSize + 7) / 8
	if len(env.Signature) != 2*byteLen {
		return nil, false, coreerr.New(coreerr.Malformed, "security: signature length mismatch for key type")
	}
	r := new(big.Int).SetBytes(env.Signature[:byteLen])
	s := new(big.Int).SetBytes(env.Signature[byteLen:])

	if !ecdsa.Verify(cert.PublicKey, digest, r, s) {
		return nil, false, coreerr.New(coreerr.SecurityFailure, "security: signature verification failed")
	}

	return env.Payload, false, nil
}
