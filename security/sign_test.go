package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

// buildChain returns a self-signed root, an AA issued by the root, and
// an AT issued by the AA, all valid for a window around epoch+1h and
// covering permission "cam".
func buildChain(t *testing.T) (root Certificate, aa Certificate, at Certificate, atKey *ecdsa.PrivateKey) {
	t.Helper()
	epoch := time.Unix(0, 0)

	rootKey := mustKey(t)
	root = Certificate{
		Role:        RoleRoot,
		KeyType:     KeyTypeNistP256,
		PublicKey:   &rootKey.PublicKey,
		NotBefore:   epoch,
		NotAfter:    epoch.Add(10 * 365 * 24 * time.Hour),
		Permissions: []Permission{"cam"},
	}
	rootRaw, err := signRaw([]byte{0x01}, rootKey)
	require.NoError(t, err)
	root.Raw = rootRaw
	root.ID = HashCertificate(root.Raw)

	aaKey := mustKey(t)
	aa = Certificate{
		Role:        RoleAuthorizationAuthority,
		Issuer:      root.ID,
		KeyType:     KeyTypeNistP256,
		PublicKey:   &aaKey.PublicKey,
		NotBefore:   epoch,
		NotAfter:    epoch.Add(5 * 365 * 24 * time.Hour),
		Permissions: []Permission{"cam"},
	}
	aaRaw, err := signRaw([]byte{0x02}, rootKey)
	require.NoError(t, err)
	aa.Raw = aaRaw
	aa.ID = HashCertificate(aa.Raw)

	atKey = mustKey(t)
	at = Certificate{
		Role:        RoleAuthorizationTicket,
		Issuer:      aa.ID,
		KeyType:     KeyTypeNistP256,
		PublicKey:   &atKey.PublicKey,
		NotBefore:   epoch,
		NotAfter:    epoch.Add(7 * 24 * time.Hour),
		Permissions: []Permission{"cam"},
	}
	atRaw, err := signRaw([]byte{0x03}, aaKey)
	require.NoError(t, err)
	at.Raw = atRaw
	at.ID = HashCertificate(at.Raw)

	return root, aa, at, atKey
}

func newTestVerifier(t *testing.T, root, aa Certificate, clk *clock.Mock) *Verifier {
	t.Helper()
	store := NewStore()
	store.Put(root)
	store.Put(aa)
	cache, err := NewCertCache(8)
	require.NoError(t, err)
	return NewVerifier(store, cache, 8, clk)
}

func TestSignThenVerifyWithCertificateSucceeds(t *testing.T) {
	root, aa, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.RequestCertInclusion()

	env, err := signer.Sign([]byte("hello geonet"), 42)
	require.NoError(t, err)
	require.Equal(t, SignerCertificate, env.SignerKind)

	verifier := newTestVerifier(t, root, aa, mock)

	payload, requestInclusion, err := verifier.Verify(env, "cam", time.Minute)
	require.NoError(t, err)
	require.False(t, requestInclusion)
	require.Equal(t, []byte("hello geonet"), payload)
}

func TestVerifyUnknownDigestRequestsInclusion(t *testing.T) {
	root, aa, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	// Pretend a certificate was already sent, so this Sign uses the
	// compact digest form.
	signer.lastInclude = mock.Now()

	env, err := signer.Sign([]byte("payload"), 42)
	require.NoError(t, err)
	require.Equal(t, SignerDigest, env.SignerKind)

	verifier := newTestVerifier(t, root, aa, mock)

	_, requestInclusion, err := verifier.Verify(env, "cam", time.Minute)
	require.Error(t, err)
	require.True(t, requestInclusion)
}

func TestVerifyRejectsStaleGenerationTime(t *testing.T) {
	root, aa, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.RequestCertInclusion()
	env, err := signer.Sign([]byte("payload"), 42)
	require.NoError(t, err)

	mock.Add(5 * time.Minute)
	verifier := newTestVerifier(t, root, aa, mock)

	_, _, err = verifier.Verify(env, "cam", time.Minute)
	require.Error(t, err)
}

func TestVerifyRejectsPermissionMismatch(t *testing.T) {
	root, aa, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.RequestCertInclusion()
	env, err := signer.Sign([]byte("payload"), 42)
	require.NoError(t, err)

	verifier := newTestVerifier(t, root, aa, mock)

	_, _, err = verifier.Verify(env, "dangerous-driving", time.Minute)
	require.Error(t, err)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	root, aa, at, atKey := buildChain(t)

	mock := clock.NewMock()
	mock.Set(time.Unix(0, 0).Add(time.Hour))

	signer := NewSigner(at, atKey, mock)
	signer.RequestCertInclusion()
	env, err := signer.Sign([]byte("payload"), 42)
	require.NoError(t, err)

	env.Signature[0] ^= 0xff

	verifier := newTestVerifier(t, root, aa, mock)

	_, _, err = verifier.Verify(env, "cam", time.Minute)
	require.Error(t, err)
}
