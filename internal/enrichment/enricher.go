// Package enrichment derives analytics dimensions from the raw request data
// captured with each click.
package enrichment

import (
	"go-shortlink/internal/conf"
	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is enrichment providers.
var ProviderSet = wire.NewSet(NewClickEnricher)

// Unknown is recorded when a dimension cannot be derived.
const Unknown = "Unknown"

// Enricher fills the derived fields of a click.
type Enricher struct {
	devices  *DeviceDetector
	referers *RefererClassifier
	geo      *GeoIPResolver
}

// NewEnricher builds an enricher. An empty geoipPath, or one that cannot be
// opened, leaves every country as Unknown.
func NewEnricher(geoipPath string, logger log.Logger) (*Enricher, func()) {
	e := &Enricher{
		devices:  NewDeviceDetector(),
		referers: NewRefererClassifier(),
	}
	cleanup := func() {}

	if geoipPath != "" {
		geo, err := NewGeoIPResolver(geoipPath)
		if err != nil {
			log.NewHelper(logger).Warnf("geoip database %s unavailable, countries will be %s: %v", geoipPath, Unknown, err)
		} else {
			e.geo = geo
			cleanup = func() { _ = geo.Close() }
		}
	}
	return e, cleanup
}

// NewClickEnricher builds the enricher from shortlink.clicks.geoip_database.
func NewClickEnricher(c *conf.Shortlink, logger log.Logger) (*Enricher, func()) {
	var path string
	if c != nil && c.Clicks != nil {
		path = c.Clicks.GeoIPDatabase
	}
	return NewEnricher(path, logger)
}

// Enrich sets DeviceType, TrafficSource and CountryCode on c.
func (e *Enricher) Enrich(c *domain.Click) {
	c.DeviceType = e.devices.DetectDevice(c.UserAgent)
	c.TrafficSource = e.referers.ClassifySource(c.Referrer)
	if e.geo != nil {
		c.CountryCode = e.geo.ResolveCountry(c.ClientAddress)
	} else {
		c.CountryCode = Unknown
	}
}
