package paymail

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/libvest-go/ledger"
)

// maxResponseSize caps every body read from a paymail host.
const maxResponseSize = 1 << 20

// Capabilities holds the endpoint templates a paymail host advertises.
type Capabilities struct {
	PKI         string // URL template returning the alias's public key
	VestAddress string // URL template returning the alias's ledger address
}

// PKIResponse holds the response from a Paymail PKI endpoint.
type PKIResponse struct {
	BSVAlias string `json:"bsvalias"`
	Handle   string `json:"handle"`
	PubKey   string `json:"pubkey"`
}

// AddressResponse holds the response from a vest address endpoint.
type AddressResponse struct {
	Handle  string `json:"handle"`
	Address string `json:"address"`
}

// HTTPClient defines the interface for HTTP requests.
// This allows tests to mock HTTP calls.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DefaultHTTPClient is the production HTTP client.
var DefaultHTTPClient HTTPClient = &http.Client{Timeout: 15 * time.Second}

type wellKnownResponse struct {
	BSVAlias     string         `json:"bsvalias"`
	Capabilities map[string]any `json:"capabilities"`
}

// Known Paymail capability keys.
const (
	capPKI     = "pki"
	capPKIBRFC = "6745385c3fc0"
)

// Host finds the paymail host for domain through its _bsvalias SRV record,
// falling back to the domain itself on port 443.
func Host(domain string, resolver DNSResolver) string {
	if resolver != nil {
		if eps, err := ResolveEndpoints(domain, SRVPaymail, resolver); err == nil {
			host, port, _ := net.SplitHostPort(eps[0])
			if port == "443" {
				return host
			}
			return eps[0]
		}
	}
	return domain
}

// DiscoverCapabilities fetches .well-known/bsvalias from host. Templates
// that are not https are ignored.
func DiscoverCapabilities(host string, client HTTPClient) (*Capabilities, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrPaymailDiscovery)
	}

	u := "https://" + host + "/.well-known/bsvalias"
	var wk wellKnownResponse
	if err := getJSON(client, u, &wk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymailDiscovery, err)
	}

	caps := &Capabilities{}
	for key, val := range wk.Capabilities {
		tmpl, ok := val.(string)
		if !ok || !strings.HasPrefix(tmpl, "https://") {
			continue
		}
		switch key {
		case capPKI, capPKIBRFC:
			caps.PKI = tmpl
		case BRFCVestAddress:
			caps.VestAddress = tmpl
		}
	}
	return caps, nil
}

// ResolvePKI fetches the compressed public key for alias@domain from the
// PKI endpoint in caps.
func ResolvePKI(alias, domain string, caps *Capabilities, client HTTPClient) ([]byte, error) {
	if alias == "" || domain == "" {
		return nil, fmt.Errorf("%w: alias and domain are required", ErrPKIResolution)
	}
	if caps == nil || caps.PKI == "" {
		return nil, fmt.Errorf("%w: no PKI capability found for %s", ErrPKIResolution, domain)
	}

	var pki PKIResponse
	if err := getJSON(client, expandTemplate(caps.PKI, alias, domain), &pki); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if pki.PubKey == "" {
		return nil, fmt.Errorf("%w: empty public key in response", ErrPKIResolution)
	}

	pub, err := hex.DecodeString(pki.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex public key: %w", ErrInvalidPubKey, err)
	}
	if err := validateCompressedPubKey(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// ResolveVestAddress fetches the ledger address for alias@domain from the
// vest address endpoint in caps.
func ResolveVestAddress(alias, domain string, caps *Capabilities, client HTTPClient) (ledger.Address, error) {
	if caps == nil || caps.VestAddress == "" {
		return ledger.ZeroAddress, fmt.Errorf("%w: no vest address capability for %s", ErrPKIResolution, domain)
	}

	var resp AddressResponse
	if err := getJSON(client, expandTemplate(caps.VestAddress, alias, domain), &resp); err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	addr, err := ledger.ParseAddress(resp.Address)
	if err != nil {
		return ledger.ZeroAddress, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	return addr, nil
}

func expandTemplate(tmpl, alias, domain string) string {
	out := strings.ReplaceAll(tmpl, "{alias}", url.PathEscape(alias))
	return strings.ReplaceAll(out, "{domain.tld}", url.PathEscape(domain))
}

func getJSON(client HTTPClient, u string, v any) error {
	resp, err := client.Get(u)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// Resolver resolves recipient strings to ledger addresses.
type Resolver struct {
	HTTP HTTPClient
	DNS  DNSResolver
	log  *logrus.Entry
}

// NewResolver creates a Resolver. Nil arguments select the defaults.
func NewResolver(client HTTPClient, dnsResolver DNSResolver, log *logrus.Entry) *Resolver {
	if client == nil {
		client = DefaultHTTPClient
	}
	if dnsResolver == nil {
		dnsResolver = DefaultDNSResolver
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Resolver{HTTP: client, DNS: dnsResolver, log: log.WithField("component", "paymail")}
}

// Resolve maps s to the ledger address it names. Paymail handles prefer the
// host's vest address endpoint and fall back to its PKI key.
func (r *Resolver) Resolve(s string) (ledger.Address, error) {
	rcpt, err := ParseRecipient(s)
	if err != nil {
		return ledger.ZeroAddress, err
	}

	switch rcpt.Kind {
	case KindAddress, KindPubKey:
		return rcpt.Address, nil
	case KindDNS:
		addr, err := ResolveDNSKey(rcpt.Domain, r.DNS)
		if err != nil {
			return ledger.ZeroAddress, err
		}
		r.log.WithFields(logrus.Fields{"recipient": s, "address": addr.String()}).Debug("resolved dns key")
		return addr, nil
	}

	host := Host(rcpt.Domain, r.DNS)
	caps, err := DiscoverCapabilities(host, r.HTTP)
	if err != nil {
		return ledger.ZeroAddress, err
	}
	log := r.log.WithFields(logrus.Fields{"recipient": s, "host": host})

	if caps.VestAddress != "" {
		addr, err := ResolveVestAddress(rcpt.Alias, rcpt.Domain, caps, r.HTTP)
		if err == nil {
			log.WithField("address", addr.String()).Debug("resolved vest address")
			return addr, nil
		}
		if caps.PKI == "" {
			return ledger.ZeroAddress, err
		}
		log.WithError(err).Warn("vest address endpoint failed, trying PKI")
	}

	pub, err := ResolvePKI(rcpt.Alias, rcpt.Domain, caps, r.HTTP)
	if err != nil {
		return ledger.ZeroAddress, err
	}
	addr := ledger.AddressFromPubKey(pub)
	log.WithField("address", addr.String()).Debug("resolved pki key")
	return addr, nil
}

// ResolveAll resolves every recipient, stopping at the first failure.
func (r *Resolver) ResolveAll(recipients []string) ([]ledger.Address, error) {
	out := make([]ledger.Address, len(recipients))
	for i, s := range recipients {
		addr, err := r.Resolve(s)
		if err != nil {
			return nil, fmt.Errorf("recipient %d (%s): %w", i, s, err)
		}
		out[i] = addr
	}
	return out, nil
}
