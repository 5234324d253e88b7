package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"publicV4", "93.184.216.34", true},
		{"publicV6", "2606:4700::6810:85e5", true},
		{"loopbackV4", "127.0.0.1", false},
		{"loopbackV6", "::1", false},
		{"privateTen", "10.1.2.3", false},
		{"privateOneSevenTwo", "172.16.0.9", false},
		{"privateOneNineTwo", "192.168.1.1", false},
		{"linkLocalMetadata", "169.254.169.254", false},
		{"unspecified", "0.0.0.0", false},
		{"uniqueLocalV6", "fd00::1", false},
		{"mappedLoopback", "::ffff:127.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPublicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("IsPublicAddr(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestPublicClientRefusesLoopback(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("secret"))
	}))
	defer server.Close()

	client := NewRetryClient(NewPublicHTTPClient(time.Second), fastConfig(2))
	_, err := client.Fetch(context.Background(), server.URL+"/internal")

	if !errors.Is(err, ErrForbiddenHost) {
		t.Fatalf("Fetch() error = %v, want ErrForbiddenHost", err)
	}
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Fetch() error = %v, want it to match ErrInvalidURL", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("loopback server reached %d times, want 0", n)
	}
}

func TestShouldRetrySkipsForbiddenHost(t *testing.T) {
	if shouldRetry(nil, ErrForbiddenHost) {
		t.Error("shouldRetry(ErrForbiddenHost) = true, want false")
	}
}
