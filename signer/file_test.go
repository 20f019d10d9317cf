package signer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elactrac/dotnation-sub001/types"
)

func TestLoadOrGenFileSigner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")

	s, err := LoadOrGenFileSigner(path)
	require.NoError(t, err)

	addr, err := s.Address()
	require.NoError(t, err)
	assert.True(t, types.ValidAddress(addr))

	// loading again must yield the same key
	s2, err := LoadOrGenFileSigner(path)
	require.NoError(t, err)
	addr2, err := s2.Address()
	require.NoError(t, err)
	assert.Equal(t, addr, addr2)
}

func TestFileSignerSignVerify(t *testing.T) {
	s, err := LoadOrGenFileSigner(filepath.Join(t.TempDir(), "key.json"))
	require.NoError(t, err)

	payload := []byte("extrinsic payload")
	sig, err := s.Sign(payload)
	require.NoError(t, err)

	pub, err := s.PublicKey()
	require.NoError(t, err)
	ok, err := pub.Verify(payload, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}
