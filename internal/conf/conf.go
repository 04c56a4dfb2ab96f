package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of configs/config.yaml.
type Bootstrap struct {
	Server    *Server    `json:"server"`
	Data      *Data      `json:"data"`
	Shortlink *Shortlink `json:"shortlink"`
	Auth      *Auth      `json:"auth"`
}

type Server struct {
	HTTP      *Server_HTTP      `json:"http"`
	GRPC      *Server_GRPC      `json:"grpc"`
	RateLimit *Server_RateLimit `json:"rate_limit"`
	// TrustedProxies lists the IPs and CIDRs whose forwarding headers are
	// believed. Empty means the socket address is always the client.
	TrustedProxies []string `json:"trusted_proxies"`
}

type Server_HTTP struct {
	Network     string   `json:"network"`
	Addr        string   `json:"addr"`
	Timeout     Duration `json:"timeout"`
	CORSOrigins []string `json:"cors_origins"`
}

type Server_GRPC struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Server_RateLimit limits the management API per client address. Zero
// disables it.
type Server_RateLimit struct {
	RequestsPerMinute int `json:"requests_per_minute"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Cache    *Data_Cache    `json:"cache"`
}

// Data_Database selects the driver: "postgres" (lib/pq), "pgx" or "sqlite3".
type Data_Database struct {
	Driver       string `json:"driver"`
	Source       string `json:"source"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type Data_Redis struct {
	Network      string   `json:"network"`
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	DB           int      `json:"db"`
	DialTimeout  Duration `json:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// Data_Cache selects the volatile store: "redis", "memory" or "none".
type Data_Cache struct {
	Driver string `json:"driver"`
}

type Shortlink struct {
	BaseURL string            `json:"base_url"`
	Code    *Shortlink_Code   `json:"code"`
	Cache   *Shortlink_Cache  `json:"cache"`
	Clicks  *Shortlink_Clicks `json:"clicks"`
}

type Shortlink_Code struct {
	Alphabet        string   `json:"alphabet"`
	Length          int      `json:"length"`
	MinCustomLength int      `json:"min_custom_length"`
	MaxCustomLength int      `json:"max_custom_length"`
	MaxAttempts     int      `json:"max_attempts"`
	Reserved        []string `json:"reserved"`
	Denylist        []string `json:"denylist"`
}

type Shortlink_Cache struct {
	LinkTTL         Duration `json:"link_ttl"`
	StatsTTL        Duration `json:"stats_ttl"`
	InvalidateDelay Duration `json:"invalidate_delay"`
}

type Shortlink_Clicks struct {
	Workers       int      `json:"workers"`
	QueueSize     int      `json:"queue_size"`
	Timeout       Duration `json:"timeout"`
	GeoIPDatabase string   `json:"geoip_database"`
}

type Auth struct {
	JWTSecret string `json:"jwt_secret"`
}

// Duration decodes "1.5s" style strings or a number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	case nil:
		d.Duration = 0
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// AsDuration returns the wrapped duration.
func (d Duration) AsDuration() time.Duration {
	return d.Duration
}
