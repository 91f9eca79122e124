package weavetest

import (
	"crypto/sha256"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
	"golang.org/x/crypto/ed25519"
)

// NewKey returns a freshly generated private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// KeyFromSeed returns the private key derived from name. The same name
// always results in the same key, so that fixtures of escrow parties
// ("initializer", "taker") have stable addresses across test runs.
func KeyFromSeed(name string) *crypto.PrivateKey {
	seed := sha256.Sum256([]byte(name))
	return &crypto.PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed[:])}
}

// NewCondition returns the signature condition of a new random key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}
