package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libvest-go/ledger"
)

// newOwnerKey creates a wallet with one holder key and returns its address.
func newOwnerKey(t *testing.T, h *harness) ledger.Address {
	t.Helper()
	h.env[defaultPasswordEnv] = "correct horse"
	mnemonic := h.mustRun("wallet", "new")
	assert.Len(t, strings.Fields(mnemonic), 12)

	fields := strings.Fields(h.mustRun("wallet", "add", "--name", "owner"))
	require.Len(t, fields, 3)
	assert.Equal(t, "owner", fields[0])
	assert.True(t, strings.HasPrefix(fields[2], "m/44'/236'/0'/0/"))

	addr := ledger.MustParseAddress(fields[1])
	assert.Equal(t, fields[1], strings.TrimSpace(h.mustRun("wallet", "address", "owner")))
	assert.Contains(t, h.mustRun("wallet", "list"), "owner")
	return addr
}

func TestPermitSignAndSubmit(t *testing.T) {
	h := newHarness(t)
	h.initLedger()
	owner := newOwnerKey(t, h)

	file := filepath.Join(t.TempDir(), "permit.yaml")
	h.mustRun("permit", "sign", "--key", "owner", "--spender", bobHex, "--amount", "5", "--out", file)
	out := h.mustRun("permit", "submit", "--file", file)
	assert.Contains(t, out, "NonceUsed")
	assert.Contains(t, out, "Approval")

	l := h.ledger()
	assert.Equal(t, uint64(500), l.Allowance(owner, bob))
	assert.Equal(t, uint64(1), l.Nonces(owner))

	_, err := h.run("permit", "submit", "--file", file)
	require.ErrorIs(t, err, ledger.ErrInvalidSignature)
	assert.Equal(t, exitSignature, exitCode(err))
	assert.Equal(t, uint64(1), h.ledger().Nonces(owner))
}

func TestPermitExpired(t *testing.T) {
	h := newHarness(t)
	h.initLedger()
	owner := newOwnerKey(t, h)

	file := filepath.Join(t.TempDir(), "permit.yaml")
	h.mustRun("permit", "sign", "--key", "owner", "--spender", bobHex, "--amount", "max", "--valid-for", "1m", "--out", file)
	h.clk.Advance(2 * time.Minute)

	_, err := h.run("permit", "submit", "--file", file)
	require.ErrorIs(t, err, ledger.ErrExpired)
	assert.Equal(t, exitSignature, exitCode(err))
	assert.Zero(t, h.ledger().Allowance(owner, bob))
}

func TestPermitSignToStdout(t *testing.T) {
	h := newHarness(t)
	h.initLedger()
	owner := newOwnerKey(t, h)

	out := h.mustRun("permit", "sign", "--key", "owner", "--spender", bobHex, "--amount", "1")
	assert.Contains(t, out, "owner: "+owner.String())
	assert.Contains(t, out, "nonce: 0")
	assert.Contains(t, out, "signature: ")
}

func TestWalletRequiresPassword(t *testing.T) {
	h := newHarness(t)
	h.initLedger()

	_, err := h.run("wallet", "new")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))

	h.env[defaultPasswordEnv] = "pw"
	_, err = h.run("wallet", "new", "--words", "15")
	assert.Equal(t, exitUsage, exitCode(err))
}
