package beacon

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of verified rounds a CachingVerifier
// remembers.
const DefaultCacheSize = 128

// CachingVerifier wraps a Verifier with an LRU of recently verified rounds so
// that repeated operations referencing the same round skip the pairing check.
// A cache hit still requires the presented signature to match the verified one
// byte for byte.
type CachingVerifier struct {
	inner Verifier
	cache *lru.Cache[uint64, []byte]
}

func NewCachingVerifier(inner Verifier, size int) (*CachingVerifier, error) {
	cache, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachingVerifier{inner: inner, cache: cache}, nil
}

func (cv *CachingVerifier) VerifyBeacon(round uint64, sig []byte, prevSig []byte) bool {
	if cached, ok := cv.cache.Get(round); ok && bytes.Equal(cached, sig) {
		return true
	}
	if !cv.inner.VerifyBeacon(round, sig, prevSig) {
		return false
	}
	cv.cache.Add(round, bytes.Clone(sig))
	return true
}
