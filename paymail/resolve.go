package paymail

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/inherit"
)

// HTTPClient sends requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Capabilities holds the endpoint templates a paymail host advertises.
type Capabilities struct {
	BSVAlias string
	PKI      string // template with {alias} and {domain.tld}
}

// PKIResponse is the body returned by a PKI endpoint.
type PKIResponse struct {
	BSVAlias string `json:"bsvalias"`
	Handle   string `json:"handle"`
	PubKey   string `json:"pubkey"` // hex compressed public key
}

type wellKnownResponse struct {
	BSVAlias     string         `json:"bsvalias"`
	Capabilities map[string]any `json:"capabilities"`
}

// Capability keys for PKI: the short name and its BRFC id.
const (
	capPKI     = "pki"
	capPKIBRFC = "0c4339ef99c2"
)

// maxResponseSize caps discovery and PKI bodies.
const maxResponseSize = 1 << 20

// Resolver turns handles into addresses.
type Resolver struct {
	http HTTPClient
	dns  DNSResolver
	log  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(r *Resolver) { r.http = c }
}

// WithDNSResolver replaces the system resolver, e.g. with a DNSSECResolver.
func WithDNSResolver(d DNSResolver) Option {
	return func(r *Resolver) { r.dns = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// NewResolver creates a Resolver using the system DNS resolver and a
// 30-second HTTP client unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		http: &http.Client{Timeout: 30 * time.Second},
		dns:  net.DefaultResolver,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capabilities fetches .well-known/bsvalias for domain.
func (r *Resolver) Capabilities(ctx context.Context, domain string) (*Capabilities, error) {
	host, err := ResolveHost(ctx, domain, r.dns)
	if err != nil {
		return nil, err
	}

	wellKnown := "https://" + host + "/.well-known/bsvalias"
	var wk wellKnownResponse
	if err := r.getJSON(ctx, wellKnown, &wk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymailDiscovery, err)
	}

	caps := &Capabilities{BSVAlias: wk.BSVAlias}
	for key, val := range wk.Capabilities {
		s, ok := val.(string)
		if !ok {
			continue
		}
		if key == capPKI || key == capPKIBRFC {
			caps.PKI = s
		}
	}
	return caps, nil
}

// PublicKey resolves h to the compressed public key its host publishes.
func (r *Resolver) PublicKey(ctx context.Context, h Handle) ([]byte, error) {
	caps, err := r.Capabilities(ctx, h.Domain)
	if err != nil {
		return nil, err
	}
	if caps.PKI == "" {
		return nil, fmt.Errorf("%w: %s advertises no pki capability", ErrPKIResolution, h.Domain)
	}

	pkiURL := strings.ReplaceAll(caps.PKI, "{alias}", url.PathEscape(h.Alias))
	pkiURL = strings.ReplaceAll(pkiURL, "{domain.tld}", h.Domain)

	var pki PKIResponse
	if err := r.getJSON(ctx, pkiURL, &pki); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if pki.Handle != "" && !strings.EqualFold(pki.Handle, h.String()) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrPKIResolution, h, pki.Handle)
	}

	pub, err := hex.DecodeString(pki.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	if err := validateCompressedPubKey(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// Address resolves h to the hash160 of its published public key.
func (r *Resolver) Address(ctx context.Context, h Handle) (inherit.Address, error) {
	raw, err := r.PublicKey(ctx, h)
	if err != nil {
		return inherit.Address{}, err
	}
	pub, err := ec.PublicKeyFromBytes(raw)
	if err != nil {
		return inherit.Address{}, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	addr, err := inherit.AddressFromBytes(pub.Hash())
	if err != nil {
		return inherit.Address{}, err
	}
	r.log.Debug("handle resolved", zap.Stringer("handle", h), zap.Stringer("address", addr))
	return addr, nil
}

func (r *Resolver) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s: %w", rawURL, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// validateCompressedPubKey checks for 33 bytes with a 0x02 or 0x03 prefix.
func validateCompressedPubKey(pub []byte) error {
	if len(pub) != 33 {
		return fmt.Errorf("%w: expected 33 bytes, got %d", ErrInvalidPubKey, len(pub))
	}
	if pub[0] != 0x02 && pub[0] != 0x03 {
		return fmt.Errorf("%w: invalid prefix byte 0x%02x", ErrInvalidPubKey, pub[0])
	}
	return nil
}
