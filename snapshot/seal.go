package snapshot

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for passphrase-based key derivation.
	argon2Time        = 3
	argon2Memory      = 64 * 1024 // 64 MB
	argon2Parallelism = 4
	argon2KeyLen      = 32

	// Envelope layout sizes.
	saltLen     = 16
	nonceLen    = 12
	checksumLen = 4
)

// envelopeMagic identifies a sealed snapshot ("FRS1").
var envelopeMagic = []byte{0x46, 0x52, 0x53, 0x31}

// Seal encodes the snapshot and encrypts it with Argon2id + AES-256-GCM.
//
// Output format: magic(4B) || salt(16B) || nonce(12B) ||
// AES-GCM(argon2id(passphrase, salt), nonce, body||checksum)
// where checksum = SHA256(body)[:4] for verifying correct decryption.
func Seal(st *State, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	body, err := encodeState(st)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("snapshot: generate salt: %w", err)
	}

	derivedKey := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	bodyHash := sha256.Sum256(body)
	plaintext := make([]byte, 0, len(body)+checksumLen)
	plaintext = append(plaintext, body...)
	plaintext = append(plaintext, bodyHash[:checksumLen]...)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("snapshot: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("snapshot: GCM creation failed: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("snapshot: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(envelopeMagic)+saltLen+nonceLen+len(ciphertext))
	result = append(result, envelopeMagic...)
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// Open decrypts a sealed snapshot and verifies its checksum.
func Open(data []byte, passphrase string) (*State, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	minLen := len(envelopeMagic) + saltLen + nonceLen + checksumLen
	if len(data) < minLen {
		return nil, ErrBadEnvelope
	}
	if !bytes.Equal(data[:len(envelopeMagic)], envelopeMagic) {
		return nil, ErrBadEnvelope
	}
	data = data[len(envelopeMagic):]

	salt := data[:saltLen]
	nonce := data[saltLen : saltLen+nonceLen]
	ciphertext := data[saltLen+nonceLen:]

	derivedKey := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(plaintext) < checksumLen {
		return nil, ErrDecryptionFailed
	}

	body := plaintext[:len(plaintext)-checksumLen]
	storedChecksum := plaintext[len(plaintext)-checksumLen:]
	bodyHash := sha256.Sum256(body)
	if !bytes.Equal(storedChecksum, bodyHash[:checksumLen]) {
		return nil, ErrChecksumMismatch
	}

	return decodeState(body)
}
