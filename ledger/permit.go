package ledger

import (
	"fmt"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/libvest-go/codec"
)

// Domain binds signed approvals to one ledger instance so a signature made
// for one deployment is useless on another.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract Address
}

// PermitMessage is the tuple an owner signs to grant an allowance.
type PermitMessage struct {
	Owner    Address
	Spender  Address
	Value    uint64
	Nonce    uint64
	Deadline int64
}

// Verifier recovers the signer address of digest from sig. Implementations
// wrap the actual curve arithmetic; the ledger only compares the result
// with the claimed owner.
type Verifier interface {
	Recover(digest, sig []byte) (Address, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(digest, sig []byte) (Address, error)

// Recover implements Verifier.
func (f VerifierFunc) Recover(digest, sig []byte) (Address, error) {
	return f(digest, sig)
}

// DomainSeparator is SHA-256d of the domain's deterministic CBOR encoding.
func DomainSeparator(d Domain) ([]byte, error) {
	enc, err := codec.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode domain: %w", err)
	}
	return bsvhash.Sha256d(enc), nil
}

// PermitDigest is the 32-byte message an owner signs for msg under d.
func PermitDigest(d Domain, msg PermitMessage) ([]byte, error) {
	sep, err := DomainSeparator(d)
	if err != nil {
		return nil, err
	}
	enc, err := codec.Marshal(struct {
		Separator []byte
		Permit    PermitMessage
	}{sep, msg})
	if err != nil {
		return nil, fmt.Errorf("ledger: encode permit: %w", err)
	}
	return bsvhash.Sha256d(enc), nil
}

// Approve sets the amount spender may draw from owner.
func (l *Ledger) Approve(owner, spender Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if owner.IsZero() || spender.IsZero() {
		return ErrZeroAddress
	}
	l.setAllowance(owner, spender, amount)
	l.emit(Event{Kind: EventApproval, Time: l.now(), From: owner, To: spender, Amount: amount})
	return nil
}

// Permit turns owner's signed authorization into an allowance for spender.
// The deadline is checked before the signature. On success the owner's
// nonce advances, so the same signature can never be replayed; on any
// failure the nonce is untouched.
func (l *Ledger) Permit(owner, spender Address, amount uint64, deadline int64, sig []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "Permit", "owner": owner.String(), "spender": spender.String(), "amount": amount})

	if owner.IsZero() || spender.IsZero() {
		return ErrZeroAddress
	}
	now := l.now()
	if now > deadline {
		return fmt.Errorf("%w: deadline %d, now %d", ErrExpired, deadline, now)
	}
	if l.verifier == nil {
		return fmt.Errorf("%w: no verifier configured", ErrInvalidSignature)
	}

	nonce := l.nonces[owner]
	digest, err := PermitDigest(l.domain, PermitMessage{
		Owner:    owner,
		Spender:  spender,
		Value:    amount,
		Nonce:    nonce,
		Deadline: deadline,
	})
	if err != nil {
		return err
	}
	signer, err := l.verifier.Recover(digest, sig)
	if err != nil {
		log.WithError(err).Warn("permit signature did not verify")
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if signer != owner {
		log.WithField("signer", signer.String()).Warn("permit signed by someone else")
		return fmt.Errorf("%w: signed by %s", ErrInvalidSignature, signer)
	}

	l.nonces[owner] = nonce + 1
	l.setAllowance(owner, spender, amount)
	l.emit(Event{Kind: EventNonceUsed, Time: now, From: owner, Amount: nonce + 1})
	l.emit(Event{Kind: EventApproval, Time: now, From: owner, To: spender, Amount: amount})
	log.WithField("nonce", nonce).Debug("permit accepted")
	return nil
}
