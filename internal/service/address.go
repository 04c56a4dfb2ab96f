package service

import (
	"fmt"
	"net"
	nethttp "net/http"
	"net/netip"
	"strings"

	"go-shortlink/internal/conf"
)

// AddressResolver finds the originating client IP of a request. Forwarding
// headers only count when the connection comes from a trusted proxy.
type AddressResolver struct {
	trusted []netip.Prefix
}

// NewAddressResolver parses server.trusted_proxies. Entries are single
// addresses or CIDR ranges.
func NewAddressResolver(c *conf.Server) (*AddressResolver, error) {
	var proxies []string
	if c != nil {
		proxies = c.TrustedProxies
	}
	return newAddressResolver(proxies)
}

func newAddressResolver(proxies []string) (*AddressResolver, error) {
	ar := &AddressResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			ar.trusted = append(ar.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		ar.trusted = append(ar.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return ar, nil
}

func (ar *AddressResolver) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range ar.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Resolve returns the client IP of r. Behind trusted proxies it walks
// X-Forwarded-For from the nearest hop and stops at the first address that
// is not a proxy, so a client cannot pick its own identity by prepending
// hops. X-Real-IP is used when no X-Forwarded-For is present.
func (ar *AddressResolver) Resolve(r *nethttp.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !ar.isTrusted(peer) {
		return host
	}

	client := peer.Unmap()
	hops := forwardedHops(r.Header)
	if len(hops) == 0 {
		if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return addr.Unmap().String()
		}
		return client.String()
	}
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(hops[i])
		if err != nil {
			break
		}
		client = addr.Unmap()
		if !ar.isTrusted(client) {
			break
		}
	}
	return client.String()
}

// forwardedHops flattens every X-Forwarded-For line into one hop list.
func forwardedHops(h nethttp.Header) []string {
	var hops []string
	for _, line := range h.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(line, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
