package ports

import "context"

// SecretCypher encrypts the custody wallet signing key at rest. Plaintext
// secrets exist only transiently inside the operations that need to sign.
type SecretCypher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, encrypted []byte) ([]byte, error)
}
