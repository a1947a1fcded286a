package wallet

import "errors"

var (
	// ErrInvalidPhrase indicates the recovery phrase fails BIP39 validation.
	ErrInvalidPhrase = errors.New("wallet: invalid recovery phrase")

	// ErrInvalidWordCount indicates a phrase length other than 12 or 24 words.
	ErrInvalidWordCount = errors.New("wallet: recovery phrase must be 12 or 24 words")

	// ErrIndexOutOfRange indicates a key index at or above the BIP32 hardened offset.
	ErrIndexOutOfRange = errors.New("wallet: key index exceeds maximum (2^31-1)")

	// ErrUnknownAccount indicates an account outside the holder/operator set.
	ErrUnknownAccount = errors.New("wallet: unknown account")

	// ErrKeyNotFound indicates no key carries the requested label.
	ErrKeyNotFound = errors.New("wallet: key not found")

	// ErrEmptyLabel indicates a key label that is the empty string.
	ErrEmptyLabel = errors.New("wallet: key label is empty")

	// ErrKeyExists indicates the label is already taken.
	ErrKeyExists = errors.New("wallet: key label already exists")

	// ErrDecryptionFailed indicates wrong password or corrupted wallet data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrUnsupportedSeed indicates a sealed seed written by an unknown format version.
	ErrUnsupportedSeed = errors.New("wallet: unsupported sealed seed version")

	// ErrInvalidKDF indicates Argon2id parameters outside the accepted range.
	ErrInvalidKDF = errors.New("wallet: invalid key derivation parameters")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")
)
