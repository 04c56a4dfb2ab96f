package enrichment

import (
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// GeoIPResolver resolves client addresses to ISO country codes.
type GeoIPResolver struct {
	db *geoip2.Reader
}

// NewGeoIPResolver opens a GeoIP2 or GeoLite2 country database.
func NewGeoIPResolver(path string) (*GeoIPResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{db: db}, nil
}

func (g *GeoIPResolver) Close() error {
	return g.db.Close()
}

// ResolveCountry returns the ISO code for addr, which may carry a port.
// Private, malformed and unknown addresses resolve to Unknown.
func (g *GeoIPResolver) ResolveCountry(addr string) string {
	ip := parseIP(addr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return Unknown
	}

	record, err := g.db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return Unknown
	}
	return record.Country.IsoCode
}

func parseIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return net.ParseIP(addr)
}
