package paymail

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/bitfsorg/libvest-go/ledger"
)

// DNSResolver defines the interface for DNS lookups.
// This allows tests to mock DNS resolution.
type DNSResolver interface {
	// LookupSRV looks up SRV records for the given service, proto, and name.
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)

	// LookupTXT looks up TXT records for the given name.
	LookupTXT(name string) ([]string, error)
}

// netResolver wraps the standard net package DNS functions.
type netResolver struct{}

func (netResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

func (netResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultDNSResolver uses the system resolver without DNSSEC checks.
var DefaultDNSResolver DNSResolver = netResolver{}

const (
	// SRVPaymail is the service label of _bsvalias._tcp.{domain}.
	SRVPaymail = "bsvalias"

	// KeyRecordLabel prefixes the domain for key TXT lookups: _vest.{domain}.
	KeyRecordLabel = "_vest."

	// KeyRecordPrefix starts the TXT value: vest=<address or pubkey hex>.
	KeyRecordPrefix = "vest="
)

// ResolveEndpoints resolves SRV records for a domain and returns host:port
// pairs sorted by priority, then by descending weight.
func ResolveEndpoints(domain, service string, resolver DNSResolver) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if service == "" {
		return nil, fmt.Errorf("%w: empty service", ErrDNSLookupFailed)
	}

	_, addrs, err := resolver.LookupSRV(service, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: SRV lookup for _%s._tcp.%s: %w", ErrDNSLookupFailed, service, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no SRV records for _%s._tcp.%s", ErrNoEndpoints, service, domain)
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	endpoints := make([]string, len(addrs))
	for i, srv := range addrs {
		host := strings.TrimSuffix(srv.Target, ".")
		endpoints[i] = net.JoinHostPort(host, fmt.Sprint(srv.Port))
	}
	return endpoints, nil
}

// ResolveDNSKey reads the _vest.{domain} TXT record and returns the ledger
// address it names. The record value is either an address or a compressed
// public key in hex; the first vest= record wins.
func ResolveDNSKey(domain string, resolver DNSResolver) (ledger.Address, error) {
	if domain == "" {
		return ledger.ZeroAddress, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}

	name := KeyRecordLabel + domain
	txts, err := resolver.LookupTXT(name)
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: TXT lookup for %s: %w", ErrDNSLookupFailed, name, err)
	}

	var value string
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if strings.HasPrefix(txt, KeyRecordPrefix) {
			value = strings.TrimSpace(strings.TrimPrefix(txt, KeyRecordPrefix))
			break
		}
	}
	if value == "" {
		return ledger.ZeroAddress, fmt.Errorf("%w: no %s TXT record for %s", ErrDNSLookupFailed, KeyRecordPrefix, name)
	}

	r, err := ParseRecipient(value)
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: %s record for %s: %w", ErrInvalidPubKey, KeyRecordPrefix, name, err)
	}
	if r.Kind != KindAddress && r.Kind != KindPubKey {
		return ledger.ZeroAddress, fmt.Errorf("%w: %s record for %s names a %s", ErrInvalidRecipient, KeyRecordPrefix, name, r.Kind)
	}
	return r.Address, nil
}
