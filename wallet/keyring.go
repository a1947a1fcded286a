package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/libvest-go/ledger"
)

const (
	// SeedFile holds the sealed seed inside a wallet directory.
	SeedFile = "wallet.enc"
	// KeyringFile holds the label index inside a wallet directory.
	KeyringFile = "keys.yaml"
)

// Label names one derived key so operators can refer to "treasury-ops"
// rather than a derivation index.
type Label struct {
	Name    string         `yaml:"name"`
	Account Account        `yaml:"account"`
	Index   uint32         `yaml:"index"`
	Address ledger.Address `yaml:"address"`
}

// Keyring tracks labeled keys and the next free index per account. It
// holds no secrets.
type Keyring struct {
	Network      string  `yaml:"network"`
	NextHolder   uint32  `yaml:"next_holder"`
	NextOperator uint32  `yaml:"next_operator"`
	Labels       []Label `yaml:"labels"`
}

// NewKeyring returns an empty keyring for network.
func NewKeyring(network string) *Keyring {
	return &Keyring{Network: network, Labels: []Label{}}
}

// NewKey derives the next unused key in account, records it under name
// and returns it.
func (w *Wallet) NewKey(kr *Keyring, name string, account Account) (*KeyPair, error) {
	if name == "" {
		return nil, ErrEmptyLabel
	}
	if _, err := kr.Lookup(name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrKeyExists, name)
	}

	next := &kr.NextHolder
	if account == OperatorAccount {
		next = &kr.NextOperator
	}
	kp, err := w.DeriveKey(account, *next)
	if err != nil {
		return nil, err
	}
	kr.Labels = append(kr.Labels, Label{Name: name, Account: account, Index: *next, Address: kp.Address()})
	*next++
	return kp, nil
}

// Key re-derives the key recorded under name.
func (w *Wallet) Key(kr *Keyring, name string) (*KeyPair, error) {
	l, err := kr.Lookup(name)
	if err != nil {
		return nil, err
	}
	return w.DeriveKey(l.Account, l.Index)
}

// Lookup returns the label recorded under name.
func (kr *Keyring) Lookup(name string) (Label, error) {
	for _, l := range kr.Labels {
		if l.Name == name {
			return l, nil
		}
	}
	return Label{}, fmt.Errorf("%w: %q", ErrKeyNotFound, name)
}

// Sorted returns the labels ordered by name.
func (kr *Keyring) Sorted() []Label {
	out := make([]Label, len(kr.Labels))
	copy(out, kr.Labels)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks a loaded keyring for duplicate labels and indices that
// would be handed out twice.
func (kr *Keyring) Validate() error {
	names := make(map[string]bool)
	for _, l := range kr.Labels {
		if names[l.Name] {
			return fmt.Errorf("wallet: duplicate label %q", l.Name)
		}
		names[l.Name] = true

		next := kr.NextHolder
		if l.Account == OperatorAccount {
			next = kr.NextOperator
		} else if l.Account != HolderAccount {
			return fmt.Errorf("%w: label %q", ErrUnknownAccount, l.Name)
		}
		if l.Index >= next {
			return fmt.Errorf("wallet: label %q index %d not below next index %d", l.Name, l.Index, next)
		}
	}
	return nil
}

// MarshalYAML writes the account by name.
func (a Account) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML reads an account name.
func (a *Account) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseAccount(node.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Create writes a new wallet directory: the sealed seed and an empty
// keyring. It refuses to overwrite an existing seed.
func Create(dir string, seed []byte, password string, network *Network) (*Keyring, error) {
	return CreateWithKDF(dir, seed, password, network, DefaultKDF)
}

// CreateWithKDF is Create with an explicit Argon2id cost.
func CreateWithKDF(dir string, seed []byte, password string, network *Network, kdf KDF) (*Keyring, error) {
	if network == nil {
		network = &MainNet
	}
	seedPath := filepath.Join(dir, SeedFile)
	if _, err := os.Stat(seedPath); err == nil {
		return nil, fmt.Errorf("wallet: %s already exists", seedPath)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("wallet: create directory: %w", err)
	}
	sealed, err := SealSeed(seed, password, network, kdf)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(seedPath, sealed, 0600); err != nil {
		return nil, fmt.Errorf("wallet: write seed: %w", err)
	}
	kr := NewKeyring(network.Name)
	if err := SaveKeyring(dir, kr); err != nil {
		return nil, err
	}
	return kr, nil
}

// Open loads the keyring in dir and unseals the seed for the keyring's
// network.
func Open(dir, password string) (*Wallet, *Keyring, error) {
	kr, err := LoadKeyring(dir)
	if err != nil {
		return nil, nil, err
	}
	net, err := GetNetwork(kr.Network)
	if err != nil {
		return nil, nil, err
	}
	sealed, err := os.ReadFile(filepath.Join(dir, SeedFile))
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: read seed: %w", err)
	}
	seed, err := OpenSeed(sealed, password, net)
	if err != nil {
		return nil, nil, err
	}
	w, err := NewWallet(seed, net)
	if err != nil {
		return nil, nil, err
	}
	return w, kr, nil
}

// LoadKeyring reads and validates the keyring in dir.
func LoadKeyring(dir string) (*Keyring, error) {
	data, err := os.ReadFile(filepath.Join(dir, KeyringFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no keyring in %s", ErrKeyNotFound, dir)
		}
		return nil, fmt.Errorf("wallet: read keyring: %w", err)
	}
	var kr Keyring
	if err := yaml.Unmarshal(data, &kr); err != nil {
		return nil, fmt.Errorf("wallet: parse keyring: %w", err)
	}
	if kr.Labels == nil {
		kr.Labels = []Label{}
	}
	if err := kr.Validate(); err != nil {
		return nil, err
	}
	return &kr, nil
}

// SaveKeyring writes kr to dir.
func SaveKeyring(dir string, kr *Keyring) error {
	data, err := yaml.Marshal(kr)
	if err != nil {
		return fmt.Errorf("wallet: encode keyring: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, KeyringFile), data, 0600); err != nil {
		return fmt.Errorf("wallet: write keyring: %w", err)
	}
	return nil
}
