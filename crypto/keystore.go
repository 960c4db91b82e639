package crypto

import (
	"crypto/rsa"
	"fmt"
	"sync"
)

// KeyStore resolves the `inkeys`/`rsakeyname` configuration keys to
// loaded RSA keys, so callstate's RSA-signed-challenge verification
// (spec §4.4 step 2 "verify RSA signature... with the user's trusted
// public keys") doesn't need to know how key material reached the
// process. Populating the store from config files is an external
// collaborator concern (spec §6); this type only holds what's already
// been parsed.
type KeyStore struct {
	mu       sync.RWMutex
	public   map[string]*rsa.PublicKey
	private  map[string]*rsa.PrivateKey
}

// NewKeyStore creates an empty store.
func NewKeyStore() *KeyStore {
	return &KeyStore{
		public:  make(map[string]*rsa.PublicKey),
		private: make(map[string]*rsa.PrivateKey),
	}
}

// AddPublicKey registers a trusted public key under an `inkeys` name.
func (ks *KeyStore) AddPublicKey(name string, key *rsa.PublicKey) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.public[name] = key
}

// AddPrivateKey registers our own signing key under an `outkey` name.
func (ks *KeyStore) AddPrivateKey(name string, key *rsa.PrivateKey) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.private[name] = key
}

// PublicKey looks up a trusted public key by name.
func (ks *KeyStore) PublicKey(name string) (*rsa.PublicKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.public[name]
	if !ok {
		return nil, fmt.Errorf("crypto: no public key registered for %q", name)
	}
	return key, nil
}

// PrivateKey looks up our signing key by name.
func (ks *KeyStore) PrivateKey(name string) (*rsa.PrivateKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.private[name]
	if !ok {
		return nil, fmt.Errorf("crypto: no private key registered for %q", name)
	}
	return key, nil
}
