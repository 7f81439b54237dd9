package security

import "time"

// SignerKind discriminates how the signer is identified in an envelope
// (§4.6: "alternates between digest ... and certificate").
type SignerKind uint8

const (
	SignerDigest SignerKind = iota
	SignerCertificate
)

// Envelope is the secured-message wrapper around a GeoNetworking
// packet's bytes: application identifier, generation time, payload
// hash, signer identity (digest or full certificate), and the ECDSA
// signature itself (§4.6).
type Envelope struct {
	PSID           uint32
	GenerationTime time.Time
	PayloadHash    []byte
	SignerKind     SignerKind
	SignerDigest   HashedId8
	SignerCert     *Certificate
	Signature      []byte
	Payload        []byte
}

// toBeSigned assembles the signed-data structure: psid, generation
// time, payload hash, and signer identifier, in a fixed order so signer
// and verifier compute identical bytes (§4.6).
func (e Envelope) toBeSigned() []byte {
	var buf []byte

	var psidBytes [4]byte
	psidBytes[0] = byte(e.PSID >> 24)
	psidBytes[1] = byte(e.PSID >> 16)
	psidBytes[2] = byte(e.PSID >> 8)
	psidBytes[3] = byte(e.PSID)
	buf = append(buf, psidBytes[:]...)

	var tsBytes [8]byte
	ts := uint64(e.GenerationTime.UnixMilli())
	for i := 0; i < 8; i++ {
		tsBytes[7-i] = byte(ts >> (8 * i))
	}
	buf = append(buf, tsBytes[:]...)

	buf = append(buf, e.PayloadHash...)

	switch e.SignerKind {
	case SignerDigest:
		buf = append(buf, e.SignerDigest[:]...)
	case SignerCertificate:
		if e.SignerCert != nil {
			buf = append(buf, e.SignerCert.Raw...)
		}
	}

	return buf
}
