// Package wallet derives and stores the secp256k1 keys that own ledger
// addresses and sign delegated approvals.
//
// A wallet directory holds two files: a sealed BIP39 seed and a YAML
// keyring naming the derived keys. Keys come from BIP32 along
// m/44'/236'/{account}'/0/{index}, where account 0 holds token-holder keys
// and account 1 holds operator keys that carry privileged roles.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	"golang.org/x/crypto/argon2"
)

// NewRecoveryPhrase generates a fresh BIP39 phrase of 12 or 24 words.
func NewRecoveryPhrase(words int) (string, error) {
	if words != 12 && words != 24 {
		return "", fmt.Errorf("%w: %d", ErrInvalidWordCount, words)
	}
	// Each word carries 11 bits, one of every 33 is checksum.
	entropy, err := bip39.NewEntropy(words * 32 / 3)
	if err != nil {
		return "", fmt.Errorf("wallet: entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: encode phrase: %w", err)
	}
	return phrase, nil
}

// ValidPhrase reports whether phrase is a well-formed BIP39 phrase.
func ValidPhrase(phrase string) bool {
	return bip39.IsMnemonicValid(phrase)
}

// SeedFromPhrase turns a recovery phrase and optional passphrase into the
// 64-byte BIP32 seed.
func SeedFromPhrase(phrase, passphrase string) ([]byte, error) {
	if !ValidPhrase(phrase) {
		return nil, ErrInvalidPhrase
	}
	seed, err := bip39.NewSeedWithErrorChecking(phrase, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPhrase, err)
	}
	return seed, nil
}

// KDF is the Argon2id cost a seed was sealed with. It is stored in the
// sealed file so the cost can be raised without breaking older wallets.
type KDF struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDF is used for new wallets.
var DefaultKDF = KDF{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}

// maxKDFMemoryKiB bounds what a sealed file may ask Open to allocate.
const maxKDFMemoryKiB = 4 * 1024 * 1024

func (k KDF) validate() error {
	if k.Time == 0 || k.Threads == 0 || k.MemoryKiB < 8*uint32(k.Threads) || k.MemoryKiB > maxKDFMemoryKiB {
		return fmt.Errorf("%w: argon2id t=%d m=%dKiB p=%d", ErrInvalidKDF, k.Time, k.MemoryKiB, k.Threads)
	}
	return nil
}

func (k KDF) key(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, k.Time, k.MemoryKiB, k.Threads, 32)
}

// Sealed seed layout:
//
//	version(1) | time(4) | memoryKiB(4) | threads(1) | salt(16) | nonce(12) | AES-256-GCM ciphertext
//
// The header plus the network name is the GCM additional data, so a seed
// sealed for testnet does not open under a keyring that says mainnet and a
// rewritten KDF header fails authentication.
const (
	SealVersion byte = 1

	saltLen   = 16
	headerLen = 1 + 4 + 4 + 1 + saltLen
)

// SealSeed encrypts seed for network under password.
func SealSeed(seed []byte, password string, network *Network, kdf KDF) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		return nil, ErrInvalidNetwork
	}
	if err := kdf.validate(); err != nil {
		return nil, err
	}

	header := make([]byte, headerLen)
	header[0] = SealVersion
	binary.BigEndian.PutUint32(header[1:5], kdf.Time)
	binary.BigEndian.PutUint32(header[5:9], kdf.MemoryKiB)
	header[9] = kdf.Threads
	if _, err := rand.Read(header[10:]); err != nil {
		return nil, fmt.Errorf("wallet: salt: %w", err)
	}

	aead, err := newAEAD(kdf.key(password, header[10:]))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wallet: nonce: %w", err)
	}

	out := make([]byte, 0, headerLen+len(nonce)+len(seed)+aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, seed, sealAD(header, network)), nil
}

// OpenSeed reverses SealSeed. A wrong password, a different network or any
// tampering all yield ErrDecryptionFailed.
func OpenSeed(sealed []byte, password string, network *Network) ([]byte, error) {
	if network == nil {
		return nil, ErrInvalidNetwork
	}
	if len(sealed) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrDecryptionFailed, len(sealed))
	}
	if sealed[0] != SealVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSeed, sealed[0])
	}
	header := sealed[:headerLen]
	kdf := KDF{
		Time:      binary.BigEndian.Uint32(header[1:5]),
		MemoryKiB: binary.BigEndian.Uint32(header[5:9]),
		Threads:   header[9],
	}
	if err := kdf.validate(); err != nil {
		return nil, err
	}

	aead, err := newAEAD(kdf.key(password, header[10:]))
	if err != nil {
		return nil, err
	}
	rest := sealed[headerLen:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: truncated", ErrDecryptionFailed)
	}
	nonce, ct := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	seed, err := aead.Open(nil, nonce, ct, sealAD(header, network))
	if err != nil || len(seed) == 0 {
		return nil, ErrDecryptionFailed
	}
	return seed, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wallet: gcm: %w", err)
	}
	return aead, nil
}

func sealAD(header []byte, network *Network) []byte {
	ad := make([]byte, 0, len(header)+len(network.Name))
	ad = append(ad, header...)
	return append(ad, network.Name...)
}
