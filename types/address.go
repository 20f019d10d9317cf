package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// NetworkPrefix identifies the chain in SS58-encoded addresses.
const NetworkPrefix byte = 42

var ss58Preamble = []byte("SS58PRE")

// ErrInvalidAddress is returned for malformed or wrong-checksum addresses.
var ErrInvalidAddress = errors.New("invalid address")

// EncodeAddress renders a 32-byte account id as an SS58 address.
func EncodeAddress(accountID []byte) (string, error) {
	if len(accountID) != 32 {
		return "", fmt.Errorf("%w: account id must be 32 bytes, got %d", ErrInvalidAddress, len(accountID))
	}
	payload := append([]byte{NetworkPrefix}, accountID...)
	sum := ss58Checksum(payload)
	return base58.Encode(append(payload, sum...)), nil
}

// DecodeAddress parses an SS58 address back into its 32-byte account id.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	// prefix + 32-byte account id + 2-byte checksum
	if len(raw) != 35 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}
	if raw[0] != NetworkPrefix {
		return nil, fmt.Errorf("%w: unknown network prefix %d", ErrInvalidAddress, raw[0])
	}
	payload, sum := raw[:33], raw[33:]
	if !bytes.Equal(sum, ss58Checksum(payload)) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	accountID := make([]byte, 32)
	copy(accountID, payload[1:])
	return accountID, nil
}

// ValidAddress reports whether addr is a well-formed address for this network.
func ValidAddress(addr string) bool {
	_, err := DecodeAddress(addr)
	return err == nil
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preamble)
	h.Write(payload)
	return h.Sum(nil)[:2]
}
