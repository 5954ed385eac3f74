package paymail

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/heirloom-go/inherit"
)

// --- ParseHandle ---

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in     string
		alias  string
		domain string
	}{
		{"alice@example.com", "alice", "example.com"},
		{"  bob@Mail.Example.COM ", "bob", "mail.example.com"},
		{"paymail:carol@example.org", "carol", "example.org"},
		{"$dave@handcash.io", "dave", "handcash.io"},
		{"Erin.Smith@example.com.", "Erin.Smith", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, err := ParseHandle(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.alias, h.Alias)
			assert.Equal(t, tt.domain, h.Domain)
			assert.True(t, IsHandle(tt.in))
		})
	}
}

func TestParseHandle_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "alice", "@example.com", "alice@", "alice@localhost",
		"a@b@example.com", "al ice@example.com", "alice@exa mple.com", "alice@example.com:443",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseHandle(in)
			assert.ErrorIs(t, err, ErrInvalidHandle)
		})
	}
	assert.False(t, IsHandle("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
}

// --- ResolveHost ---

type fakeDNS struct {
	srvs []*net.SRV
	err  error
	seen string
}

func (f *fakeDNS) LookupSRV(_ context.Context, service, proto, name string) (string, []*net.SRV, error) {
	f.seen = "_" + service + "._" + proto + "." + name
	return "", f.srvs, f.err
}

func TestResolveHost(t *testing.T) {
	ctx := context.Background()

	d := &fakeDNS{srvs: []*net.SRV{
		{Target: "backup.example.com.", Port: 8443, Priority: 20, Weight: 100},
		{Target: "light.example.com.", Port: 443, Priority: 10, Weight: 1},
		{Target: "heavy.example.com.", Port: 444, Priority: 10, Weight: 50},
	}}
	host, err := ResolveHost(ctx, "example.com", d)
	require.NoError(t, err)
	assert.Equal(t, "heavy.example.com:444", host)
	assert.Equal(t, "_bsvalias._tcp.example.com", d.seen)

	host, err = ResolveHost(ctx, "example.com", &fakeDNS{err: &net.DNSError{Err: "no such host", IsNotFound: true}})
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", host)

	host, err = ResolveHost(ctx, "example.com", &fakeDNS{})
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", host)

	_, err = ResolveHost(ctx, "example.com", &fakeDNS{err: errors.New("timeout")})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)

	_, err = ResolveHost(ctx, "", &fakeDNS{})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

// --- DNSSECResolver against an in-process DNS server ---

func startDNS(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func srvAnswer(ad bool, rcode int) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(req, rcode)
		m.AuthenticatedData = ad
		if rcode == dns.RcodeSuccess {
			m.Answer = append(m.Answer, &dns.SRV{
				Hdr:      dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
				Priority: 10,
				Weight:   5,
				Port:     8443,
				Target:   "pay.example.com.",
			})
		}
		_ = w.WriteMsg(m)
	}
}

func TestNewDNSSECResolver_Defaults(t *testing.T) {
	assert.Equal(t, "8.8.8.8:53", NewDNSSECResolver("").Upstream)
	assert.Equal(t, "1.1.1.1:53", NewDNSSECResolver("1.1.1.1:53").Upstream)
}

func TestDNSSECResolver_Authenticated(t *testing.T) {
	r := NewDNSSECResolver(startDNS(t, srvAnswer(true, dns.RcodeSuccess)))

	_, srvs, err := r.LookupSRV(context.Background(), SRVService, "tcp", "example.com")
	require.NoError(t, err)
	require.Len(t, srvs, 1)
	assert.Equal(t, "pay.example.com", srvs[0].Target)
	assert.Equal(t, uint16(8443), srvs[0].Port)

	host, err := ResolveHost(context.Background(), "example.com", r)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com:8443", host)
}

func TestDNSSECResolver_Unauthenticated(t *testing.T) {
	r := NewDNSSECResolver(startDNS(t, srvAnswer(false, dns.RcodeSuccess)))
	_, err := ResolveHost(context.Background(), "example.com", r)
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)

	// An unauthenticated denial must not fall back to the bare domain.
	r = NewDNSSECResolver(startDNS(t, srvAnswer(false, dns.RcodeNameError)))
	_, err = ResolveHost(context.Background(), "example.com", r)
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
}

func TestDNSSECResolver_AuthenticatedDenial(t *testing.T) {
	r := NewDNSSECResolver(startDNS(t, srvAnswer(true, dns.RcodeNameError)))
	host, err := ResolveHost(context.Background(), "example.com", r)
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", host)
}

func TestDNSSECResolver_ServerFailure(t *testing.T) {
	r := NewDNSSECResolver(startDNS(t, srvAnswer(true, dns.RcodeServerFailure)))
	_, err := ResolveHost(context.Background(), "example.com", r)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

// --- Resolver against a TLS paymail host ---

type paymailHost struct {
	pki    string // pki capability; "" omits it
	handle string
	pubkey string
}

func startPaymailHost(t *testing.T, h *paymailHost) (*Resolver, *httptest.Server) {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/bsvalias", func(w http.ResponseWriter, r *http.Request) {
		caps := map[string]any{"f12f968c92d6": srv.URL + "/profile/{alias}@{domain.tld}"}
		if h.pki != "" {
			caps["pki"] = srv.URL + h.pki
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"bsvalias": "1.0", "capabilities": caps})
	})
	mux.HandleFunc("/id/alice@example.com", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(PKIResponse{BSVAlias: "1.0", Handle: h.handle, PubKey: h.pubkey})
	})
	srv = httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	hostname, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	d := &fakeDNS{srvs: []*net.SRV{{Target: hostname, Port: uint16(port), Priority: 1}}}
	return NewResolver(WithHTTPClient(srv.Client()), WithDNSResolver(d)), srv
}

func TestResolver_Address(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	r, _ := startPaymailHost(t, &paymailHost{
		pki:    "/id/{alias}@{domain.tld}",
		handle: "alice@example.com",
		pubkey: hex.EncodeToString(pub.Compressed()),
	})

	h, err := ParseHandle("alice@example.com")
	require.NoError(t, err)

	caps, err := r.Capabilities(context.Background(), h.Domain)
	require.NoError(t, err)
	assert.Equal(t, "1.0", caps.BSVAlias)
	assert.Contains(t, caps.PKI, "/id/{alias}@{domain.tld}")

	addr, err := r.Address(context.Background(), h)
	require.NoError(t, err)
	want, err := inherit.AddressFromBytes(pub.Hash())
	require.NoError(t, err)
	assert.Equal(t, want, addr)
}

func TestResolver_Failures(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	good := hex.EncodeToString(priv.PubKey().Compressed())
	h := Handle{Alias: "alice", Domain: "example.com"}

	tests := []struct {
		name string
		host paymailHost
		want error
	}{
		{"no pki capability", paymailHost{handle: "alice@example.com", pubkey: good}, ErrPKIResolution},
		{"pki endpoint missing", paymailHost{pki: "/nope/{alias}", pubkey: good}, ErrPKIResolution},
		{"handle mismatch", paymailHost{pki: "/id/{alias}@{domain.tld}", handle: "mallory@example.com", pubkey: good}, ErrPKIResolution},
		{"not hex", paymailHost{pki: "/id/{alias}@{domain.tld}", pubkey: "zz"}, ErrInvalidPubKey},
		{"uncompressed", paymailHost{pki: "/id/{alias}@{domain.tld}", pubkey: "04" + good[2:]}, ErrInvalidPubKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := tt.host
			r, _ := startPaymailHost(t, &host)
			_, err := r.Address(context.Background(), h)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolver_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	hostname, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	r := NewResolver(WithHTTPClient(srv.Client()),
		WithDNSResolver(&fakeDNS{srvs: []*net.SRV{{Target: hostname, Port: uint16(port)}}}))
	_, err = r.Address(context.Background(), Handle{Alias: "alice", Domain: "example.com"})
	assert.ErrorIs(t, err, ErrPaymailDiscovery)
}
