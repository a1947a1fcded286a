package paymail

import (
	"encoding/hex"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// ComputeBRFCID computes a BRFC capability ID: the first 6 bytes of
// SHA256d(title + author + version), hex encoded.
func ComputeBRFCID(title, author, version string) string {
	return hex.EncodeToString(bsvhash.Sha256d([]byte(title + author + version))[:6])
}

// BRFCVestAddress is advertised in .well-known/bsvalias by hosts that
// return a ledger address for an alias directly.
var BRFCVestAddress = ComputeBRFCID("Vest Ledger Address", "libvest", "1.0")
