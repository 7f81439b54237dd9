package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"math/big"

	"golang.org/x/crypto/pbkdf2"

	"github.com/veloce-go/geonet/coreerr"
)

const (
	saltLen      = 16
	nonceLen     = 12
	pbkdf2Iters  = 200_000
	pbkdf2KeyLen = 32 // AES-256
)

// SealedKey is a private key encrypted at rest: PBKDF2-derived AES-256-GCM
// over the key's raw scalar.
type SealedKey struct {
	KeyType KeyType
	Salt    []byte
	Nonce   []byte
	Cipher  []byte
}

// SealKey encrypts priv under passphrase, deriving an AES-256 key via
// PBKDF2-HMAC-SHA256.
func SealKey(priv *ecdsa.PrivateKey, keyType KeyType, passphrase []byte) (SealedKey, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return SealedKey{}, coreerr.Wrap(coreerr.ResourceError, "security: generate salt", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return SealedKey{}, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return SealedKey{}, coreerr.Wrap(coreerr.ResourceError, "security: generate nonce", err)
	}

	plain := priv.D.Bytes()
	cipherText := aead.Seal(nil, nonce, plain, nil)

	return SealedKey{KeyType: keyType, Salt: salt, Nonce: nonce, Cipher: cipherText}, nil
}

// Unseal decrypts a SealedKey given the passphrase it was sealed under.
func (sk SealedKey) Unseal(passphrase []byte) (*ecdsa.PrivateKey, error) {
	aead, err := newAEAD(passphrase, sk.Salt)
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, sk.Nonce, sk.Cipher, nil)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SecurityFailure, "security: unseal private key: wrong passphrase or corrupt data", err)
	}

	curve, err := sk.KeyType.Curve()
	if err != nil {
		return nil, err
	}

	d := new(big.Int).SetBytes(plain)
	priv := new(ecdsa.PrivateKey)
	priv.Curve = curve
	priv.D = d
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())
	return priv, nil
}

func newAEAD(passphrase, salt []byte) (cipher.AEAD, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("security: empty passphrase")
	}
	key := pbkdf2.Key(passphrase, salt, pbkdf2Iters, pbkdf2KeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ResourceError, "security: build cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ResourceError, "security: build AEAD", err)
	}
	return aead, nil
}
