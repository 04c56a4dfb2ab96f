package enrichment

import (
	ua "github.com/mileusna/useragent"
)

// DeviceDetector detects device type from User-Agent strings.
type DeviceDetector struct{}

func NewDeviceDetector() *DeviceDetector {
	return &DeviceDetector{}
}

// DetectDevice returns "Bot", "Tablet", "Mobile", "Desktop" or Unknown.
// Bots are checked first so crawlers never count as visitors.
func (d *DeviceDetector) DetectDevice(userAgent string) string {
	if userAgent == "" {
		return Unknown
	}

	parsed := ua.Parse(userAgent)
	switch {
	case parsed.Bot:
		return "Bot"
	case parsed.Tablet:
		return "Tablet"
	case parsed.Mobile:
		return "Mobile"
	case parsed.Desktop:
		return "Desktop"
	default:
		return Unknown
	}
}
