package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abandonPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// cheapKDF keeps sealing fast in tests.
var cheapKDF = KDF{Time: 1, MemoryKiB: 64, Threads: 1}

// makeWallet creates a wallet from a deterministic phrase.
func makeWallet(t *testing.T) *Wallet {
	t.Helper()
	phrase, err := bip39.NewMnemonic(make([]byte, 16))
	require.NoError(t, err)
	seed, err := SeedFromPhrase(phrase, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, &MainNet)
	require.NoError(t, err)
	return w
}

// --- Recovery phrase tests ---

func TestNewRecoveryPhrase(t *testing.T) {
	for _, words := range []int{12, 24} {
		phrase, err := NewRecoveryPhrase(words)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(phrase), words)
		assert.True(t, ValidPhrase(phrase))
	}

	for _, words := range []int{0, 15, 18} {
		_, err := NewRecoveryPhrase(words)
		assert.ErrorIs(t, err, ErrInvalidWordCount)
	}
}

func TestValidPhrase(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		valid  bool
	}{
		{"valid 12-word", abandonPhrase, true},
		{"invalid words", "foo bar baz qux quux corge grault garply waldo fred plugh xyzzy", false},
		{"bad checksum", strings.Replace(abandonPhrase, "about", "abandon", 1), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidPhrase(tt.phrase))
		})
	}
}

func TestSeedFromPhrase(t *testing.T) {
	s1, err := SeedFromPhrase(abandonPhrase, "")
	require.NoError(t, err)
	assert.Len(t, s1, 64)

	s2, err := SeedFromPhrase(abandonPhrase, "")
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	s3, err := SeedFromPhrase(abandonPhrase, "extra")
	require.NoError(t, err)
	assert.NotEqual(t, s1, s3)

	_, err = SeedFromPhrase("not a phrase", "")
	assert.ErrorIs(t, err, ErrInvalidPhrase)
}

// --- Sealed seed tests ---

func TestSealOpenSeed(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")

	sealed, err := SealSeed(seed, "hunter2", &TestNet, cheapKDF)
	require.NoError(t, err)
	assert.Equal(t, SealVersion, sealed[0])
	assert.Len(t, sealed, headerLen+12+len(seed)+16)

	got, err := OpenSeed(sealed, "hunter2", &TestNet)
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	_, err = OpenSeed(sealed, "wrong", &TestNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = OpenSeed(sealed, "hunter2", &MainNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "sealed for testnet")

	_, err = OpenSeed([]byte{1, 2, 3}, "hunter2", &TestNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = SealSeed(nil, "x", &TestNet, cheapKDF)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = SealSeed(seed, "x", nil, cheapKDF)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
}

func TestOpenSeed_Tampering(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")
	sealed, err := SealSeed(seed, "pw", &MainNet, cheapKDF)
	require.NoError(t, err)

	tamper := func(i int, v byte) []byte {
		out := append([]byte(nil), sealed...)
		out[i] = v
		return out
	}

	_, err = OpenSeed(tamper(0, 2), "pw", &MainNet)
	assert.ErrorIs(t, err, ErrUnsupportedSeed)

	// Time is authenticated data: raising it still fails to open.
	_, err = OpenSeed(tamper(4, 2), "pw", &MainNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = OpenSeed(tamper(9, 0), "pw", &MainNet)
	assert.ErrorIs(t, err, ErrInvalidKDF)

	_, err = OpenSeed(tamper(len(sealed)-1, sealed[len(sealed)-1]^0xff), "pw", &MainNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = OpenSeed(sealed[:headerLen+12], "pw", &MainNet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestKDFValidate(t *testing.T) {
	assert.NoError(t, DefaultKDF.validate())
	assert.NoError(t, cheapKDF.validate())
	for _, k := range []KDF{
		{Time: 0, MemoryKiB: 64, Threads: 1},
		{Time: 1, MemoryKiB: 64, Threads: 0},
		{Time: 1, MemoryKiB: 7, Threads: 1},
		{Time: 1, MemoryKiB: maxKDFMemoryKiB + 1, Threads: 1},
	} {
		assert.ErrorIs(t, k.validate(), ErrInvalidKDF, "%+v", k)
	}
}

// --- Derivation tests ---

func TestNewWallet(t *testing.T) {
	_, err := NewWallet(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	w, err := NewWallet([]byte("0123456789abcdef"), nil)
	require.NoError(t, err)
	assert.Equal(t, &MainNet, w.Network())
}

func TestDeriveKey(t *testing.T) {
	w := makeWallet(t)

	holder, err := w.DeriveHolderKey(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/236'/0'/0/0", holder.Path)

	op, err := w.DeriveOperatorKey(3)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/236'/1'/0/3", op.Path)

	again, err := w.DeriveKey(HolderAccount, 0)
	require.NoError(t, err)
	assert.Equal(t, holder.Address(), again.Address(), "derivation is deterministic")
	assert.NotEqual(t, holder.Address(), op.Address())
	assert.Equal(t, holder.PublicKey.Compressed(), holder.PrivateKey.PubKey().Compressed())
}

func TestDeriveKey_Rejections(t *testing.T) {
	w := makeWallet(t)

	_, err := w.DeriveKey(Account(7), 0)
	assert.ErrorIs(t, err, ErrUnknownAccount)

	_, err = w.DeriveHolderKey(MaxIndex + 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = w.DeriveHolderKey(MaxIndex)
	assert.NoError(t, err)
}

func TestNetworks(t *testing.T) {
	net, err := GetNetwork("testnet")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), net.ChainID)

	_, err = GetNetwork("moon")
	assert.ErrorIs(t, err, ErrInvalidNetwork)

	byID, err := NetworkForChainID(1337)
	require.NoError(t, err)
	assert.Equal(t, "regtest", byID.Name)

	_, err = NetworkForChainID(99)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
}

func TestParseAccount(t *testing.T) {
	a, err := ParseAccount("operator")
	require.NoError(t, err)
	assert.Equal(t, OperatorAccount, a)
	assert.Equal(t, "holder", HolderAccount.String())

	_, err = ParseAccount("admin")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

// --- Keyring tests ---

func TestKeyring_NewKeyAndLookup(t *testing.T) {
	w := makeWallet(t)
	kr := NewKeyring("mainnet")

	alice, err := w.NewKey(kr, "alice", HolderAccount)
	require.NoError(t, err)
	bob, err := w.NewKey(kr, "bob", HolderAccount)
	require.NoError(t, err)
	ops, err := w.NewKey(kr, "ops", OperatorAccount)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), kr.NextHolder)
	assert.Equal(t, uint32(1), kr.NextOperator)
	assert.Equal(t, "m/44'/236'/0'/0/1", bob.Path)
	assert.Equal(t, "m/44'/236'/1'/0/0", ops.Path)

	label, err := kr.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.Address(), label.Address)

	again, err := w.Key(kr, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.Address(), again.Address())

	_, err = w.NewKey(kr, "alice", OperatorAccount)
	assert.ErrorIs(t, err, ErrKeyExists)
	_, err = w.NewKey(kr, "", HolderAccount)
	assert.ErrorIs(t, err, ErrEmptyLabel)
	_, err = w.Key(kr, "carol")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	names := []string{}
	for _, l := range kr.Sorted() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"alice", "bob", "ops"}, names)
	require.NoError(t, kr.Validate())
}

func TestKeyring_Validate(t *testing.T) {
	tests := []struct {
		name string
		kr   Keyring
	}{
		{"duplicate label", Keyring{NextHolder: 2, Labels: []Label{{Name: "a", Index: 0}, {Name: "a", Index: 1}}}},
		{"index reuse", Keyring{NextHolder: 1, Labels: []Label{{Name: "a", Index: 1}}}},
		{"operator index reuse", Keyring{NextOperator: 0, Labels: []Label{{Name: "a", Account: OperatorAccount}}}},
		{"unknown account", Keyring{Labels: []Label{{Name: "a", Account: 9}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.kr.Validate())
		})
	}
}

func TestCreateOpen_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallet")
	seed, err := SeedFromPhrase(abandonPhrase, "")
	require.NoError(t, err)

	kr, err := CreateWithKDF(dir, seed, "pw", &TestNet, cheapKDF)
	require.NoError(t, err)
	assert.Equal(t, "testnet", kr.Network)

	_, err = CreateWithKDF(dir, seed, "pw", &TestNet, cheapKDF)
	assert.Error(t, err, "existing seed is never overwritten")

	w, kr, err := Open(dir, "pw")
	require.NoError(t, err)
	kp, err := w.NewKey(kr, "treasury", OperatorAccount)
	require.NoError(t, err)
	require.NoError(t, SaveKeyring(dir, kr))

	raw, err := os.ReadFile(filepath.Join(dir, KeyringFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "account: operator")
	assert.Contains(t, string(raw), kp.Address().String())

	w2, kr2, err := Open(dir, "pw")
	require.NoError(t, err)
	assert.Equal(t, &TestNet, w2.Network())
	again, err := w2.Key(kr2, "treasury")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), again.Address())

	_, _, err = Open(dir, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpen_SeedBoundToKeyringNetwork(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallet")
	seed, err := SeedFromPhrase(abandonPhrase, "")
	require.NoError(t, err)
	_, err = CreateWithKDF(dir, seed, "pw", &TestNet, cheapKDF)
	require.NoError(t, err)

	require.NoError(t, SaveKeyring(dir, NewKeyring(MainNet.Name)))
	_, _, err = Open(dir, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	require.NoError(t, SaveKeyring(dir, NewKeyring(TestNet.Name)))
	w, _, err := Open(dir, "pw")
	require.NoError(t, err)
	assert.Equal(t, &TestNet, w.Network())
}

func TestLoadKeyring_Missing(t *testing.T) {
	_, err := LoadKeyring(t.TempDir())
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
