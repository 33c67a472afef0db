package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// NetworkError covers DNS, dial, and connection-level failures.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// TLSError covers handshake and certificate verification failures.
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string { return "tls error: " + e.Err.Error() }
func (e *TLSError) Unwrap() error { return e.Err }

// TimeoutError covers deadline hits anywhere in the exchange.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "timeout: " + e.Err.Error() }
func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPStatusError reports a response that arrived with a non-success code.
type HTTPStatusError struct {
	Code int
	URL  string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Kind names the failure class of a fetch error, or "" for untyped errors.
func Kind(err error) string {
	var (
		timeout *TimeoutError
		tlsErr  *TLSError
		netErr  *NetworkError
		status  *HTTPStatusError
	)
	switch {
	case errors.As(err, &timeout):
		return "TimeoutError"
	case errors.As(err, &tlsErr):
		return "TLSError"
	case errors.As(err, &netErr):
		return "NetworkError"
	case errors.As(err, &status):
		return "HTTPStatusError"
	}
	return ""
}

// classify wraps raw transport errors into the typed kinds above. Already
// typed errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != "" {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}

	var (
		record   tls.RecordHeaderError
		verify   *tls.CertificateVerificationError
		unknown  x509.UnknownAuthorityError
		hostname x509.HostnameError
	)
	if errors.As(err, &record) || errors.As(err, &verify) || errors.As(err, &unknown) || errors.As(err, &hostname) {
		return &TLSError{Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &NetworkError{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &NetworkError{Err: err}
	}
	return err
}
