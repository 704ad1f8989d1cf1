// File: internal/network/httpclient.go
package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/xkilldash9x/quizwalk/internal/config"
)

// Default transport settings. A session talks to a handful of hosts, so the pool is small.
const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 20 * time.Second
	DefaultMaxIdleConns          = 32
	DefaultMaxIdleConnsPerHost   = 4
	DefaultIdleConnTimeout       = 30 * time.Second
)

// AcceptEncoding is advertised on every request; DecompressBody understands each of them.
const AcceptEncoding = "gzip, deflate, br"

// ClientConfig holds the configuration for the HTTP client and transport layers.
type ClientConfig struct {
	IgnoreTLSErrors bool
	// RequestTimeout is the overall client timeout. Zero leaves timing to the request context.
	RequestTimeout        time.Duration
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ForceHTTP2            bool
	UserAgent             string
	Logger                *zap.Logger
}

// NewClientConfig derives transport settings from the network section of the configuration.
func NewClientConfig(cfg config.NetworkConfig, logger *zap.Logger) *ClientConfig {
	return &ClientConfig{
		IgnoreTLSErrors:       cfg.IgnoreTLSErrors,
		DialTimeout:           DefaultDialTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ForceHTTP2:            true,
		UserAgent:             cfg.UserAgent,
		Logger:                logger.Named("httpclient"),
	}
}

// Client wraps http.Client and stamps the configured User-Agent and Accept-Encoding on
// outgoing requests. It is safe for concurrent use.
type Client struct {
	*http.Client
}

// NewHTTPTransport creates an http.Transport for the configuration. Compression is
// negotiated by the client, so the transport's own gzip handling is disabled.
func NewHTTPTransport(cfg *ClientConfig) *http.Transport {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: DefaultKeepAliveInterval,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       configureTLS(cfg),
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		DisableCompression:    true,
		ForceAttemptHTTP2:     cfg.ForceHTTP2,
	}

	if cfg.ForceHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			cfg.Logger.Warn("Failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
		}
	}
	return transport
}

// NewClient creates the client wrapper using the configured transport.
func NewClient(cfg *ClientConfig) *Client {
	return &Client{
		Client: &http.Client{
			Transport: &headerTransport{base: NewHTTPTransport(cfg), userAgent: cfg.UserAgent},
			Timeout:   cfg.RequestTimeout,
		},
	}
}

// headerTransport fills in default headers without overriding ones the caller set.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", AcceptEncoding)
	}
	return t.base.RoundTrip(req)
}

// configureTLS sets up TLS with a TLS 1.2 floor and a session cache.
func configureTLS(cfg *ClientConfig) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
		InsecureSkipVerify: cfg.IgnoreTLSErrors,
	}
}
