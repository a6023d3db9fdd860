/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
At-rest page encryption.

Encryption Overview:
====================

FinchDB supports AES-256-GCM encryption of table pages. This provides:
  - Confidentiality: Pages are unreadable without the key
  - Integrity: GCM mode provides authenticated encryption
  - Nonce uniqueness: Each page write uses a fresh random nonce

Key Management:
===============

Keys can be provided in two ways:
 1. Direct 32-byte key: For production use with external key management
 2. Passphrase: Derived using PBKDF2 with SHA-256

Each page is encrypted independently so single pages remain readable
without touching the rest of the file. The nonce is prepended to the
ciphertext (12 bytes) and the GCM tag adds 16 bytes, so an encrypted
page frame is 28 bytes larger than the page itself.
*/

package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// EncryptionConfig holds the configuration for page encryption.
type EncryptionConfig struct {
	// Enabled indicates whether encryption is enabled.
	Enabled bool

	// Key is the 32-byte AES-256 encryption key.
	// If empty and Passphrase is set, the key is derived from the passphrase.
	Key []byte

	// Passphrase is used to derive the encryption key if Key is not set.
	// The key is derived using PBKDF2 with SHA-256.
	Passphrase string

	// Salt is used for key derivation from passphrase.
	// If empty, a default salt is used (not recommended for production).
	Salt []byte
}

// DefaultSalt is used when no salt is provided for key derivation.
// In production, always use a unique salt per database.
var DefaultSalt = []byte("finchdb-default-salt-v1")

// KeyDerivationIterations is the number of PBKDF2 iterations.
// Higher values are more secure but slower.
const KeyDerivationIterations = 100000

// Encryptor provides encryption and decryption for table pages.
type Encryptor struct {
	gcm cipher.AEAD
}

// NewEncryptor creates a new Encryptor with the given configuration.
// Returns nil if encryption is disabled.
func NewEncryptor(config EncryptionConfig) (*Encryptor, error) {
	if !config.Enabled {
		return nil, nil
	}

	key := config.Key
	if len(key) == 0 && config.Passphrase != "" {
		salt := config.Salt
		if len(salt) == 0 {
			salt = DefaultSalt
		}
		key = pbkdf2.Key([]byte(config.Passphrase), salt, KeyDerivationIterations, 32, sha256.New)
	}

	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (256 bits)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encryptor{gcm: gcm}, nil
}

// Encrypt encrypts the plaintext using AES-256-GCM.
// The nonce is prepended to the ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts the ciphertext using AES-256-GCM.
// Expects the nonce to be prepended to the ciphertext.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < e.gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:e.gcm.NonceSize()]
	ciphertext = ciphertext[e.gcm.NonceSize():]

	return e.gcm.Open(nil, nonce, ciphertext, nil)
}
