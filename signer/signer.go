// Package signer implements the secp256k1 side of delegated approvals.
//
// A permit signature is the signer's 33-byte compressed public key followed
// by a DER-encoded ECDSA signature over the permit digest. Verification
// checks the signature against the embedded key and returns the key's
// HASH160 address, which the ledger compares with the claimed owner.
package signer

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libvest-go/ledger"
)

const (
	// PubKeyLen is the length of a compressed public key.
	PubKeyLen = 33

	// DigestLen is the length of a permit digest.
	DigestLen = 32

	// minDERLen is the shortest possible DER signature (both integers one byte).
	minDERLen = 8
)

// Verifier checks secp256k1 permit signatures. The zero value is ready to use.
type Verifier struct{}

var _ ledger.Verifier = Verifier{}

// Recover verifies sig over digest and returns the signer's address.
func (Verifier) Recover(digest, sig []byte) (ledger.Address, error) {
	if len(digest) != DigestLen {
		return ledger.ZeroAddress, fmt.Errorf("%w: got %d", ErrInvalidDigest, len(digest))
	}
	if len(sig) < PubKeyLen+minDERLen {
		return ledger.ZeroAddress, fmt.Errorf("%w: %d bytes", ErrMalformedSignature, len(sig))
	}

	pubBytes, der := sig[:PubKeyLen], sig[PubKeyLen:]
	pub, err := ec.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	parsed, err := ec.ParseDERSignature(der)
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
	}
	if !parsed.Verify(digest, pub) {
		return ledger.ZeroAddress, ErrVerifyFailed
	}
	return ledger.AddressFromPubKey(pub.Compressed()), nil
}

// Sign produces a permit signature over digest with priv.
func Sign(priv *ec.PrivateKey, digest []byte) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	if len(digest) != DigestLen {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDigest, len(digest))
	}
	sig, err := priv.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("signer: sign: %w", err)
	}
	der := sig.Serialize()

	out := make([]byte, 0, PubKeyLen+len(der))
	out = append(out, priv.PubKey().Compressed()...)
	out = append(out, der...)
	return out, nil
}

// SignPermit signs msg under domain d. msg.Owner must be priv's address
// for the ledger to accept the result.
func SignPermit(priv *ec.PrivateKey, d ledger.Domain, msg ledger.PermitMessage) ([]byte, error) {
	digest, err := ledger.PermitDigest(d, msg)
	if err != nil {
		return nil, err
	}
	return Sign(priv, digest)
}

// Address returns the ledger address of priv's public key.
func Address(priv *ec.PrivateKey) ledger.Address {
	return ledger.AddressFromPubKey(priv.PubKey().Compressed())
}
