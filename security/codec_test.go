package security

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestCertificateMarshalUnmarshalRoundTrip(t *testing.T) {
	_, aa, at, _ := buildChain(t)
	_ = aa

	encoded, err := at.MarshalBinary()
	require.NoError(t, err)

	decoded, consumed, err := UnmarshalCertificate(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, at.ID, decoded.ID)
	require.Equal(t, at.Issuer, decoded.Issuer)
	require.Equal(t, at.Role, decoded.Role)
	require.Equal(t, at.Permissions, decoded.Permissions)
	require.Equal(t, at.PublicKey.X, decoded.PublicKey.X)
	require.Equal(t, at.PublicKey.Y, decoded.PublicKey.Y)
	require.Equal(t, at.Raw, decoded.Raw)
}

func TestEnvelopeMarshalUnmarshalRoundTrip(t *testing.T) {
	_, _, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.RequestCertInclusion()
	env, err := signer.Sign([]byte("hello"), 7)
	require.NoError(t, err)

	encoded, err := env.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalEnvelope(encoded)
	require.NoError(t, err)
	require.Equal(t, env.PSID, decoded.PSID)
	require.Equal(t, env.GenerationTime.UnixMilli(), decoded.GenerationTime.UnixMilli())
	require.Equal(t, env.PayloadHash, decoded.PayloadHash)
	require.Equal(t, env.SignerKind, decoded.SignerKind)
	require.Equal(t, env.SignerCert.ID, decoded.SignerCert.ID)
	require.Equal(t, env.Signature, decoded.Signature)
	require.Equal(t, env.Payload, decoded.Payload)
}

func TestEnvelopeDigestFormRoundTrip(t *testing.T) {
	_, _, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.lastInclude = mock.Now()
	env, err := signer.Sign([]byte("payload"), 9)
	require.NoError(t, err)
	require.Equal(t, SignerDigest, env.SignerKind)

	encoded, err := env.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalEnvelope(encoded)
	require.NoError(t, err)
	require.Equal(t, SignerDigest, decoded.SignerKind)
	require.Equal(t, env.SignerDigest, decoded.SignerDigest)
}
