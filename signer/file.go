package signer

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/Elactrac/dotnation-sub001/types"
)

// FileSigner keeps an ed25519 signing key in a JSON file. The key is generated
// on first use.
type FileSigner struct {
	path string
	priv crypto.PrivKey
}

var _ Signer = &FileSigner{}

type keyFile struct {
	Type       string `json:"type"`
	PrivateKey string `json:"private_key"`
}

// LoadOrGenFileSigner loads the key stored at path, generating and persisting
// a fresh one when the file does not exist.
func LoadOrGenFileSigner(path string) (*FileSigner, error) {
	blob, err := os.ReadFile(path)
	switch {
	case err == nil:
		var kf keyFile
		if err := json.Unmarshal(blob, &kf); err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", path, err)
		}
		raw, err := hex.DecodeString(kf.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("decode key file %s: %w", path, err)
		}
		priv, err := crypto.UnmarshalEd25519PrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("unmarshal signing key: %w", err)
		}
		return &FileSigner{path: path, priv: priv}, nil
	case os.IsNotExist(err):
		return genFileSigner(path)
	default:
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
}

func genFileSigner(path string) (*FileSigner, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal signing key: %w", err)
	}
	blob, err := json.MarshalIndent(keyFile{
		Type:       "ed25519",
		PrivateKey: hex.EncodeToString(raw),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return nil, fmt.Errorf("write key file %s: %w", path, err)
	}
	return &FileSigner{path: path, priv: priv}, nil
}

// Sign signs payload with the stored key.
func (s *FileSigner) Sign(payload []byte) ([]byte, error) {
	return s.priv.Sign(payload)
}

// PublicKey returns the signing public key.
func (s *FileSigner) PublicKey() (crypto.PubKey, error) {
	return s.priv.GetPublic(), nil
}

// Address derives the signer's on-chain address from the raw public key.
func (s *FileSigner) Address() (string, error) {
	raw, err := s.priv.GetPublic().Raw()
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return types.EncodeAddress(raw)
}
