package signer

import (
	"github.com/libp2p/go-libp2p/core/crypto"
)

// Signer abstracts the wallet key used to sign transactions. Its absence (or a
// key that cannot be loaded) is a precondition failure for any submission.
type Signer interface {
	// Sign signs the given payload bytes.
	Sign(payload []byte) ([]byte, error)
	// PublicKey returns the signing public key.
	PublicKey() (crypto.PubKey, error)
	// Address returns the signer's on-chain address.
	Address() (string, error)
}
