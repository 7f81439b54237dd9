package security

import (
	"crypto/ecdsa"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/veloce-go/geonet/coreerr"
)

// MarshalBinary encodes c for transport inside a signed-data structure
// or a secured envelope's signer field. This is an internal encoding,
// not an ETSI ASN.1 certificate (out of scope, §1 Non-goals).
func (c Certificate) MarshalBinary() ([]byte, error) {
	curve, err := c.KeyType.Curve()
	if err != nil {
		return nil, err
	}
	byteLen := (curve.Params().BitSize + 7) / 8

	var buf []byte
	buf = append(buf, c.ID[:]...)
	buf = append(buf, byte(c.Role))
	buf = append(buf, c.Issuer[:]...)
	buf = append(buf, byte(c.KeyType))

	x := make([]byte, byteLen)
	y := make([]byte, byteLen)
	if c.PublicKey != nil {
		c.PublicKey.X.FillBytes(x)
		c.PublicKey.Y.FillBytes(y)
	}
	buf = append(buf, x...)
	buf = append(buf, y...)

	var timeBuf [16]byte
	binary.BigEndian.PutUint64(timeBuf[0:8], uint64(c.NotBefore.UnixMilli()))
	binary.BigEndian.PutUint64(timeBuf[8:16], uint64(c.NotAfter.UnixMilli()))
	buf = append(buf, timeBuf[:]...)

	if len(c.Permissions) > 255 {
		return nil, coreerr.New(coreerr.Malformed, "security: too many permissions to encode")
	}
	buf = append(buf, byte(len(c.Permissions)))
	for _, p := range c.Permissions {
		if len(p) > 255 {
			return nil, coreerr.New(coreerr.Malformed, "security: permission string too long to encode")
		}
		buf = append(buf, byte(len(p)))
		buf = append(buf, []byte(p)...)
	}

	var rawLen [2]byte
	binary.BigEndian.PutUint16(rawLen[:], uint16(len(c.Raw)))
	buf = append(buf, rawLen[:]...)
	buf = append(buf, c.Raw...)

	return buf, nil
}

// UnmarshalCertificate decodes a Certificate encoded by MarshalBinary.
func UnmarshalCertificate(b []byte) (Certificate, int, error) {
	if len(b) < HashedId8Len+1+HashedId8Len+1 {
		return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: short buffer")
	}
	var c Certificate
	off := 0
	copy(c.ID[:], b[off:off+HashedId8Len])
	off += HashedId8Len
	c.Role = Role(b[off])
	off++
	copy(c.Issuer[:], b[off:off+HashedId8Len])
	off += HashedId8Len
	c.KeyType = KeyType(b[off])
	off++

	curve, err := c.KeyType.Curve()
	if err != nil {
		return Certificate{}, 0, err
	}
	byteLen := (curve.Params().BitSize + 7) / 8
	if len(b) < off+2*byteLen+16+1 {
		return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: short buffer")
	}

	x := new(big.Int).SetBytes(b[off : off+byteLen])
	off += byteLen
	y := new(big.Int).SetBytes(b[off : off+byteLen])
	off += byteLen
	c.PublicKey = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	notBefore := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	notAfter := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	c.NotBefore = time.UnixMilli(notBefore)
	c.NotAfter = time.UnixMilli(notAfter)

	permCount := int(b[off])
	off++
	for i := 0; i < permCount; i++ {
		if off >= len(b) {
			return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: truncated permissions")
		}
		plen := int(b[off])
		off++
		if off+plen > len(b) {
			return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: truncated permission string")
		}
		c.Permissions = append(c.Permissions, Permission(b[off:off+plen]))
		off += plen
	}

	if off+2 > len(b) {
		return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: truncated raw length")
	}
	rawLen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if off+rawLen > len(b) {
		return Certificate{}, 0, coreerr.New(coreerr.Malformed, "security: certificate: truncated raw bytes")
	}
	c.Raw = append([]byte(nil), b[off:off+rawLen]...)
	off += rawLen

	return c, off, nil
}

// MarshalBinary encodes an Envelope for transmission as the secured
// payload of a GeoNetworking packet whose basic header's NextHeader is
// NextHeaderSecured.
func (e Envelope) MarshalBinary() ([]byte, error) {
	var buf []byte

	var psidBuf [4]byte
	binary.BigEndian.PutUint32(psidBuf[:], e.PSID)
	buf = append(buf, psidBuf[:]...)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(e.GenerationTime.UnixMilli()))
	buf = append(buf, tsBuf[:]...)

	if len(e.PayloadHash) > 255 {
		return nil, coreerr.New(coreerr.Malformed, "security: envelope: payload hash too long")
	}
	buf = append(buf, byte(len(e.PayloadHash)))
	buf = append(buf, e.PayloadHash...)

	buf = append(buf, byte(e.SignerKind))
	switch e.SignerKind {
	case SignerDigest:
		buf = append(buf, e.SignerDigest[:]...)
	case SignerCertificate:
		if e.SignerCert == nil {
			return nil, coreerr.New(coreerr.Malformed, "security: envelope: certificate signer kind with no certificate")
		}
		certBytes, err := e.SignerCert.MarshalBinary()
		if err != nil {
			return nil, err
		}
		var certLen [2]byte
		binary.BigEndian.PutUint16(certLen[:], uint16(len(certBytes)))
		buf = append(buf, certLen[:]...)
		buf = append(buf, certBytes...)
	}

	if len(e.Signature) > 255 {
		return nil, coreerr.New(coreerr.Malformed, "security: envelope: signature too long")
	}
	buf = append(buf, byte(len(e.Signature)))
	buf = append(buf, e.Signature...)

	var payloadLen [2]byte
	binary.BigEndian.PutUint16(payloadLen[:], uint16(len(e.Payload)))
	buf = append(buf, payloadLen[:]...)
	buf = append(buf, e.Payload...)

	return buf, nil
}

// UnmarshalEnvelope decodes an Envelope encoded by MarshalBinary.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	if len(b) < 13 {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: short buffer")
	}
	var e Envelope
	off := 0

	e.PSID = binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	genTime := int64(binary.BigEndian.Uint64(b[off : off+8]))
	e.GenerationTime = time.UnixMilli(genTime)
	off += 8

	hashLen := int(b[off])
	off++
	if off+hashLen > len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated payload hash")
	}
	e.PayloadHash = append([]byte(nil), b[off:off+hashLen]...)
	off += hashLen

	if off >= len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated signer kind")
	}
	e.SignerKind = SignerKind(b[off])
	off++

	switch e.SignerKind {
	case SignerDigest:
		if off+HashedId8Len > len(b) {
			return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated signer digest")
		}
		copy(e.SignerDigest[:], b[off:off+HashedId8Len])
		off += HashedId8Len

	case SignerCertificate:
		if off+2 > len(b) {
			return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated certificate length")
		}
		certLen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if off+certLen > len(b) {
			return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated certificate")
		}
		cert, consumed, err := UnmarshalCertificate(b[off : off+certLen])
		if err != nil {
			return Envelope{}, err
		}
		if consumed != certLen {
			return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: certificate length mismatch")
		}
		e.SignerCert = &cert
		off += certLen

	default:
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: unrecognised signer kind")
	}

	if off >= len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated signature length")
	}
	sigLen := int(b[off])
	off++
	if off+sigLen > len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated signature")
	}
	e.Signature = append([]byte(nil), b[off:off+sigLen]...)
	off += sigLen

	if off+2 > len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated payload length")
	}
	payloadLen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if off+payloadLen > len(b) {
		return Envelope{}, coreerr.New(coreerr.Malformed, "security: envelope: truncated payload")
	}
	e.Payload = append([]byte(nil), b[off:off+payloadLen]...)

	return e, nil
}
