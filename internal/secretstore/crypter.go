// Package secretstore encrypts the wallet's key material for storage at rest
// and persists the resulting blob.
//
// A blob is self-describing: it carries the KDF parameters and salt it was
// sealed with, so only the password is needed to open it. Layout:
//
//	version(1) | argon time(4) | argon memory KiB(4) | argon threads(1) | salt(16) | nonce(24) | ciphertext+tag
//
// The header (everything before the nonce) is bound to the ciphertext as
// associated data, so tampering with the parameters fails authentication just
// like a wrong password does.
package secretstore

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/xueqianLu/ethtrader/internal/errno"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// BlobVersion is the only blob layout this package reads and writes.
	BlobVersion byte = 1
	// SaltSize is the size of the per-encryption argon2id salt.
	SaltSize = 16

	headerSize = 1 + 4 + 4 + 1 + SaltSize

	// Upper bounds on what a blob header can ask the KDF for. A corrupted
	// header must fail fast instead of pinning the CPU or exhausting memory.
	maxTime      = 16
	maxMemoryKiB = 1024 * 1024
	maxThreads   = 64
)

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDF is used for newly encrypted secrets.
var DefaultKDF = KDFParams{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
}

func (p KDFParams) validate() error {
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
		return fmt.Errorf("argon2id parameters must be non-zero: %+v", p)
	}
	if p.Time > maxTime {
		return fmt.Errorf("argon2id time %d exceeds limit %d", p.Time, maxTime)
	}
	if p.MemoryKiB > maxMemoryKiB {
		return fmt.Errorf("argon2id memory %d KiB exceeds limit %d KiB", p.MemoryKiB, maxMemoryKiB)
	}
	if p.Threads > maxThreads {
		return fmt.Errorf("argon2id threads %d exceeds limit %d", p.Threads, maxThreads)
	}
	return nil
}

// Crypter seals and opens secrets with a password-derived key. It holds no
// key material between calls.
type Crypter struct {
	kdf KDFParams
}

// NewCrypter creates a Crypter that encrypts with the given KDF parameters.
// Decryption always uses the parameters recorded in the blob.
func NewCrypter(kdf KDFParams) (*Crypter, error) {
	if err := kdf.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errno.ErrConfig)
	}
	return &Crypter{kdf: kdf}, nil
}

// Encrypt seals plaintext under a key derived from password and a fresh random
// salt.
func (c *Crypter) Encrypt(plaintext []byte, password string) ([]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("salt generation error: %w", err)
	}

	header := make([]byte, headerSize)
	header[0] = BlobVersion
	binary.BigEndian.PutUint32(header[1:5], c.kdf.Time)
	binary.BigEndian.PutUint32(header[5:9], c.kdf.MemoryKiB)
	header[9] = c.kdf.Threads
	copy(header[10:], salt[:])

	key := deriveKey(password, salt[:], c.kdf)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("aead error: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation error: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, header)

	return append(header, sealed...), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong password and any form of
// corruption both fail with errno.ErrDecryption.
func (c *Crypter) Decrypt(blob []byte, password string) ([]byte, error) {
	if len(blob) < headerSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("blob too short (%d bytes): %w", len(blob), errno.ErrDecryption)
	}
	header := blob[:headerSize]
	if header[0] != BlobVersion {
		return nil, fmt.Errorf("unknown blob version %d: %w", header[0], errno.ErrDecryption)
	}
	params := KDFParams{
		Time:      binary.BigEndian.Uint32(header[1:5]),
		MemoryKiB: binary.BigEndian.Uint32(header[5:9]),
		Threads:   header[9],
	}
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errno.ErrDecryption)
	}
	salt := header[10:headerSize]

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("aead error: %w", err)
	}
	nonce := blob[headerSize : headerSize+aead.NonceSize()]
	sealed := blob[headerSize+aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, header)
	if err != nil {
		return nil, fmt.Errorf("wrong password or corrupted secret: %w", errno.ErrDecryption)
	}
	return plaintext, nil
}

func deriveKey(password string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, chacha20poly1305.KeySize)
}

// zero clears b. Callers use it on derived keys and decrypted plaintext once
// they are done with them.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero clears secret material returned by Decrypt.
func Zero(b []byte) {
	zero(b)
}
