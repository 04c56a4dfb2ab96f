package service

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"go-shortlink/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		header  map[string]string
		want    string
	}{
		{name: "socket", remote: "192.0.2.1:4000", want: "192.0.2.1"},
		{name: "untrusted peer forwarded for", remote: "192.0.2.1:4000", header: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "192.0.2.1"},
		{name: "untrusted peer real ip", remote: "192.0.2.1:4000", header: map[string]string{"X-Real-IP": "203.0.113.7"}, want: "192.0.2.1"},
		{name: "trusted peer forwarded for", trusted: []string{"10.0.0.0/8"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "spoofed leading hops ignored", trusted: []string{"10.0.0.0/8"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.2"}, want: "203.0.113.7"},
		{name: "all hops trusted", trusted: []string{"10.0.0.0/8"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, want: "10.0.0.3"},
		{name: "garbage hop", trusted: []string{"10.0.0.1"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Forwarded-For": "nope"}, want: "10.0.0.1"},
		{name: "trusted peer real ip", trusted: []string{"10.0.0.1"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
		{name: "forwarded for wins over real ip", trusted: []string{"10.0.0.1"}, remote: "10.0.0.1:5000", header: map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"}, want: "203.0.113.7"},
		{name: "ipv6 peer", trusted: []string{"::1"}, remote: "[::1]:5000", header: map[string]string{"X-Forwarded-For": "2001:db8::7"}, want: "2001:db8::7"},
		{name: "mapped ipv4 peer", trusted: []string{"127.0.0.1"}, remote: "[::ffff:127.0.0.1]:5000", header: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ar, err := NewAddressResolver(&conf.Server{TrustedProxies: tt.trusted})
			require.NoError(t, err)

			r := httptest.NewRequest(nethttp.MethodGet, "/x", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ar.Resolve(r))
		})
	}
}

func TestAddressResolver_MultipleForwardedLines(t *testing.T) {
	ar, err := NewAddressResolver(&conf.Server{TrustedProxies: []string{"10.0.0.0/8"}})
	require.NoError(t, err)

	r := httptest.NewRequest(nethttp.MethodGet, "/x", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	r.Header.Add("X-Forwarded-For", "1.2.3.4")
	r.Header.Add("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", ar.Resolve(r))
}

func TestNewAddressResolver(t *testing.T) {
	_, err := NewAddressResolver(nil)
	require.NoError(t, err)

	_, err = NewAddressResolver(&conf.Server{TrustedProxies: []string{" 10.0.0.0/8 ", "", "::1"}})
	require.NoError(t, err)

	for _, bad := range []string{"not-an-ip", "10.0.0.0/33", "10.0.0"} {
		_, err := NewAddressResolver(&conf.Server{TrustedProxies: []string{bad}})
		assert.Error(t, err, bad)
	}
}
