package compute

import (
	"context"
	"time"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/keygen"
)

// KeyPairResult reports the outcome of EnsureKeyPair. PrivateKey is set only
// when the key pair was created by this call; it cannot be retrieved later.
type KeyPairResult struct {
	Name        string
	ID          string
	Created     bool
	PrivateKey  []byte
	Fingerprint string
}

// rsaKeyBits is the modulus size of generated RSA key pairs.
const rsaKeyBits = 3072

// EnsureKeyPair makes sure a key pair named name is registered. When absent, a
// fresh key of the configured type (ed25519 unless compute.key_type is rsa) is
// generated locally and its public half imported.
func (p *Provisioner) EnsureKeyPair(ctx context.Context, name string) (result KeyPairResult, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opKeyPair, start, err) }()

	if name == "" {
		return KeyPairResult{}, &provisioning.ValidationError{Field: "key_name", Reason: "key pair name is required"}
	}

	var exists bool
	err = p.throttled(ctx, opKeyPair, func() error {
		var err error
		exists, err = p.client.KeyPairExists(ctx, name)
		return err
	})
	if err != nil {
		return KeyPairResult{}, p.classify(ctx, "DescribeKeyPairs", err)
	}
	if exists {
		provisioning.LogResourceExists(p.observer, phase, "key_pair", name, name)
		return KeyPairResult{Name: name}, nil
	}

	provisioning.LogResourceCreating(p.observer, phase, "key_pair", name)
	kp, err := p.generateKey(name)
	if err != nil {
		return KeyPairResult{}, err
	}

	var id string
	err = p.throttled(ctx, opKeyPair, func() error {
		var err error
		id, err = p.client.ImportKeyPair(ctx, name, kp.PublicKey)
		return err
	})
	if err != nil {
		if ec2.IsKeyPairDuplicate(err) {
			// Imported concurrently; the other caller holds the private key.
			provisioning.LogResourceExists(p.observer, phase, "key_pair", name, name)
			return KeyPairResult{Name: name}, nil
		}
		err = p.classify(ctx, "ImportKeyPair", err)
		provisioning.LogResourceFailed(p.observer, phase, "key_pair", name, err)
		return KeyPairResult{}, err
	}

	provisioning.LogResourceCreated(p.observer, phase, "key_pair", name, id)
	return KeyPairResult{
		Name:        name,
		ID:          id,
		Created:     true,
		PrivateKey:  kp.PrivateKey,
		Fingerprint: kp.Fingerprint,
	}, nil
}

func (p *Provisioner) generateKey(name string) (*keygen.KeyPair, error) {
	switch p.defaults.KeyType {
	case "", config.KeyTypeEd25519:
		return keygen.GenerateEd25519KeyPair(name)
	case config.KeyTypeRSA:
		return keygen.GenerateRSAKeyPair(rsaKeyBits)
	default:
		return nil, &provisioning.ValidationError{Field: "key_type", Value: p.defaults.KeyType, Reason: "must be ed25519 or rsa"}
	}
}
