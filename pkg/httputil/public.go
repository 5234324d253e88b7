package httputil

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

var ErrForbiddenHost = fmt.Errorf("%w: host is not publicly routable", ErrInvalidURL)

// NewPublicHTTPClient returns a client that only connects to publicly
// routable addresses. The check runs on the resolved address, so hostnames
// pointing into a private network are rejected too. Proxies from the
// environment are ignored.
func NewPublicHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   rejectNonPublic,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

func rejectNonPublic(_, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	if !IsPublicAddr(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, addrPort.Addr())
	}
	return nil
}

// IsPublicAddr reports whether addr is a globally routable unicast address.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}
