package keygen

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateEd25519KeyPair(t *testing.T) {
	t.Parallel()

	keyPair, err := GenerateEd25519KeyPair("stratus")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(keyPair.PublicKey, []byte("ssh-ed25519 ")))
	assert.True(t, strings.HasPrefix(keyPair.Fingerprint, "SHA256:"))

	signer, err := ssh.ParsePrivateKey(keyPair.PrivateKey)
	require.NoError(t, err)

	pub, _, _, _, err := ssh.ParseAuthorizedKey(keyPair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, pub.Marshal(), signer.PublicKey().Marshal())
}

func TestGenerateEd25519KeyPair_Unique(t *testing.T) {
	t.Parallel()

	a, err := GenerateEd25519KeyPair("")
	require.NoError(t, err)
	b, err := GenerateEd25519KeyPair("")
	require.NoError(t, err)

	assert.NotEqual(t, a.PublicKey, b.PublicKey)
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Parallel()

	keyPair, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	block, _ := pem.Decode(keyPair.PrivateKey)
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)

	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 2048, priv.N.BitLen())

	pub, _, _, _, err := ssh.ParseAuthorizedKey(keyPair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa", pub.Type())
}

func TestGenerateRSAKeyPair_InvalidBits(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{0, -1} {
		_, err := GenerateRSAKeyPair(bits)
		assert.Error(t, err, "bits=%d", bits)
	}
}
