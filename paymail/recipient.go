// Package paymail turns the recipient strings an operator writes (hex
// addresses, compressed public keys, paymail handles, DNS names) into
// ledger addresses.
package paymail

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bitfsorg/libvest-go/ledger"
)

// RecipientKind says how a recipient string identifies its holder.
type RecipientKind int

const (
	// KindAddress is a 40-hex-character ledger address, 0x prefix optional.
	KindAddress RecipientKind = iota
	// KindPubKey is a 66-hex-character compressed public key.
	KindPubKey
	// KindPaymail is alias@domain, resolved through the domain's paymail host.
	KindPaymail
	// KindDNS is a bare domain publishing a vest= TXT record.
	KindDNS
)

func (k RecipientKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindPubKey:
		return "pubkey"
	case KindPaymail:
		return "paymail"
	case KindDNS:
		return "dns"
	default:
		return fmt.Sprintf("RecipientKind(%d)", int(k))
	}
}

const compressedPubKeyHexLen = 66

// Recipient is a parsed recipient string.
type Recipient struct {
	Kind    RecipientKind
	Raw     string
	Alias   string         // KindPaymail only
	Domain  string         // KindPaymail and KindDNS
	PubKey  []byte         // KindPubKey only
	Address ledger.Address // KindAddress and KindPubKey
}

// ParseRecipient classifies s without touching the network. Address and
// public-key forms are fully resolved here.
func ParseRecipient(s string) (*Recipient, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRecipient)
	}
	r := &Recipient{Raw: raw}

	switch {
	case strings.Contains(s, "@"):
		alias, domain, _ := strings.Cut(s, "@")
		if alias == "" || strings.Contains(domain, "@") || !isDomain(domain) {
			return nil, fmt.Errorf("%w: malformed paymail %q", ErrInvalidRecipient, s)
		}
		r.Kind = KindPaymail
		r.Alias = alias
		r.Domain = strings.ToLower(domain)

	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") || isAddressHex(s):
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
		}
		r.Kind = KindAddress
		r.Address = addr

	case isPubKeyHex(s):
		pub, _ := hex.DecodeString(s)
		r.Kind = KindPubKey
		r.PubKey = pub
		r.Address = ledger.AddressFromPubKey(pub)

	case isDomain(s):
		r.Kind = KindDNS
		r.Domain = strings.ToLower(s)

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, s)
	}
	return r, nil
}

func isAddressHex(s string) bool {
	if len(s) != 2*ledger.AddressSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// isPubKeyHex checks if a string looks like a hex-encoded compressed public key.
func isPubKeyHex(s string) bool {
	if len(s) != compressedPubKeyHexLen {
		return false
	}
	if !strings.HasPrefix(s, "02") && !strings.HasPrefix(s, "03") {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// isDomain accepts dotted hostnames of letters, digits, and hyphens.
func isDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 || !strings.Contains(s, ".") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	return true
}

// validateCompressedPubKey checks that raw bytes represent a valid compressed public key.
// A compressed secp256k1 public key is exactly 33 bytes with prefix 0x02 or 0x03.
func validateCompressedPubKey(pub []byte) error {
	if len(pub) != 33 {
		return fmt.Errorf("%w: expected 33 bytes, got %d", ErrInvalidPubKey, len(pub))
	}
	if pub[0] != 0x02 && pub[0] != 0x03 {
		return fmt.Errorf("%w: invalid prefix byte 0x%02x", ErrInvalidPubKey, pub[0])
	}
	return nil
}
