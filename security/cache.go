package security

import lru "github.com/hashicorp/golang-lru/v2"

// CertCache is a bounded cache of validated certificates, keyed by
// HashedId8, separate from Store: Store holds the trust anchors (Root/
// EA/AA) the implementation is configured with, while CertCache holds
// ATs observed on the wire and already validated once (§4.6: "verify it
// against the trust store ... then cache it").
type CertCache struct {
	cache *lru.Cache[HashedId8, Certificate]
}

// NewCertCache builds a CertCache bounded to capacity entries.
func NewCertCache(capacity int) (*CertCache, error) {
	c, err := lru.New[HashedId8, Certificate](capacity)
	if err != nil {
		return nil, err
	}
	return &CertCache{cache: c}, nil
}

// Get looks up a cached certificate by its digest.
func (c *CertCache) Get(id HashedId8) (Certificate, bool) {
	return c.cache.Get(id)
}

// Put records a validated certificate.
func (c *CertCache) Put(cert Certificate) {
	c.cache.Add(cert.ID, cert)
}
