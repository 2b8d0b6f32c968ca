package http

import "time"

// ClientOption tunes the underlying http.Client built by NewConnector.
type ClientOption func(*clientConfig)

// WithDialTimeout bounds how long establishing a TCP connection may take.
func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = timeout
	}
}

// WithRequestTimeout bounds the whole request, body read included.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.requestTimeout = timeout
	}
}

func WithKeepAlive(keepAlive time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.keepAlive = keepAlive
	}
}

func WithTLSHandshakeTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.tlsHandshakeTimeout = timeout
	}
}

func WithResponseHeaderTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = timeout
	}
}

func WithIdleConnTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.idleConnTimeout = timeout
	}
}

func WithMaxIdleConns(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxIdleConns = n
	}
}

func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxIdleConnsPerHost = n
	}
}

// WithTransport appends a RoundTripper decorator; decorators apply in the
// order given, the first one wrapping closest to the network.
func WithTransport(transport TransportFunc) ClientOption {
	return func(c *clientConfig) {
		c.transports = append(c.transports, transport)
	}
}

// WithInsecureSkipVerify disables TLS certificate checks. Some self-hosted
// question banks still serve expired certificates.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(c *clientConfig) {
		c.insecureSkipVerify = skip
	}
}
