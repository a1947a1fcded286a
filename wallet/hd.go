package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libvest-go/ledger"
)

// Account separates the key chains a wallet derives.
type Account uint32

const (
	// HolderAccount keys receive and spend tokens.
	HolderAccount Account = 0
	// OperatorAccount keys hold privileged roles (admin, spender, minter).
	OperatorAccount Account = 1
)

func (a Account) String() string {
	switch a {
	case HolderAccount:
		return "holder"
	case OperatorAccount:
		return "operator"
	default:
		return fmt.Sprintf("account(%d)", uint32(a))
	}
}

// ParseAccount accepts "holder" or "operator".
func ParseAccount(s string) (Account, error) {
	switch s {
	case "holder":
		return HolderAccount, nil
	case "operator":
		return OperatorAccount, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAccount, s)
}

const (
	// BIP44 path constants.
	PurposeBIP44 = 44
	CoinType     = 236

	// MaxIndex is the largest non-hardened child index.
	MaxIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet derives ledger keys from a BIP39 seed.
//
// Key hierarchy: m/44'/236'/{account}'/0/{index}
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *Network
}

// KeyPair holds a derived key and its ledger address.
type KeyPair struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Path       string
}

// Address returns the ledger address of the key.
func (kp *KeyPair) Address() ledger.Address {
	return ledger.AddressFromPubKey(kp.PublicKey.Compressed())
}

// NewWallet creates a Wallet from a BIP39 seed. A nil network means MainNet.
func NewWallet(seed []byte, network *Network) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	masterKey, err := bip32.NewMaster(seed, network.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey, network: network}, nil
}

// Network returns the wallet's network.
func (w *Wallet) Network() *Network {
	return w.network
}

// DeriveKey derives m/44'/236'/account'/0/index.
func (w *Wallet) DeriveKey(account Account, index uint32) (*KeyPair, error) {
	if account != HolderAccount && account != OperatorAccount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAccount, uint32(account))
	}
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	key := w.masterKey
	steps := []struct {
		name  string
		index uint32
	}{
		{"purpose", PurposeBIP44 + Hardened},
		{"coin type", CoinType + Hardened},
		{"account", uint32(account) + Hardened},
		{"chain", 0},
		{"index", index},
	}
	for _, s := range steps {
		child, err := key.Child(s.index)
		if err != nil {
			return nil, fmt.Errorf("%w: %s derivation: %w", ErrDerivationFailed, s.name, err)
		}
		key = child
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.PubKey(),
		Path:       fmt.Sprintf("m/44'/236'/%d'/0/%d", uint32(account), index),
	}, nil
}

// DeriveHolderKey derives the holder key at index.
func (w *Wallet) DeriveHolderKey(index uint32) (*KeyPair, error) {
	return w.DeriveKey(HolderAccount, index)
}

// DeriveOperatorKey derives the operator key at index.
func (w *Wallet) DeriveOperatorKey(index uint32) (*KeyPair, error) {
	return w.DeriveKey(OperatorAccount, index)
}
