package signer

import "errors"

var (
	// ErrMalformedSignature indicates a signature blob too short to hold a
	// public key and a DER signature.
	ErrMalformedSignature = errors.New("signer: malformed signature")

	// ErrInvalidPublicKey indicates the embedded public key is not a valid
	// compressed secp256k1 point.
	ErrInvalidPublicKey = errors.New("signer: invalid public key")

	// ErrVerifyFailed indicates the signature does not verify over the digest.
	ErrVerifyFailed = errors.New("signer: signature verification failed")

	// ErrInvalidDigest indicates a digest that is not 32 bytes.
	ErrInvalidDigest = errors.New("signer: digest must be 32 bytes")

	// ErrNilKey indicates a nil private key.
	ErrNilKey = errors.New("signer: nil private key")
)
