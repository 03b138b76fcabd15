package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 15 * time.Second

// FingerprintTransport sends requests over TLS connections that present a
// Chrome ClientHello. It speaks HTTP/2 when the server negotiates it and
// retries over HTTP/1.1 otherwise.
type FingerprintTransport struct {
	h2     *http2.Transport
	h1     *http.Transport
	h2Once sync.Once
}

// NewFingerprintTransport returns a ready transport.
func NewFingerprintTransport() *FingerprintTransport {
	return &FingerprintTransport{
		h1: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialFingerprinted(ctx, network, addr, []string{"http/1.1"})
			},
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

func (t *FingerprintTransport) http2() *http2.Transport {
	t.h2Once.Do(func() {
		t.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialFingerprinted(ctx, network, addr, nil)
			},
		}
	})
	return t.h2
}

// RoundTrip implements http.RoundTripper. Plain http URLs go through the
// HTTP/1.1 transport unchanged.
func (t *FingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.http2().RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}
	return t.h1.RoundTrip(retry)
}

func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// dialFingerprinted dials addr and completes a Chrome-like handshake. A nil
// protos keeps Chrome's own ALPN list (h2 first).
func dialFingerprinted(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
