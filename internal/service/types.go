package service

import (
	"net/http"
	"time"

	"go-shortlink/internal/domain"
)

type CreateLinkRequest struct {
	TargetURL  string     `json:"target_url"`
	CustomCode string     `json:"custom_code,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// UpdateLinkRequest is a partial update; omitted fields are unchanged.
type UpdateLinkRequest struct {
	ID              int64      `json:"-"`
	TargetURL       *string    `json:"target_url,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ClearExpiration bool       `json:"clear_expiration,omitempty"`
}

type LinkRequest struct {
	ID int64
}

type ListLinksRequest struct {
	Page     int
	PageSize int
}

type ListClicksRequest struct {
	ID     int64
	Cursor string
	Limit  int
}

type LinkReply struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	TargetURL   string     `json:"target_url"`
	CustomCode  bool       `json:"custom_code"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	TotalClicks *int64     `json:"total_clicks,omitempty"`
}

type ListLinksReply struct {
	Links      []*LinkReply `json:"links"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

type ClickReply struct {
	ID            int64     `json:"id"`
	ClickedAt     time.Time `json:"clicked_at"`
	Referrer      string    `json:"referrer,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	ClientAddress string    `json:"client_address,omitempty"`
	DeviceType    string    `json:"device_type,omitempty"`
	TrafficSource string    `json:"traffic_source,omitempty"`
	CountryCode   string    `json:"country_code,omitempty"`
}

type ListClicksReply struct {
	Clicks     []*ClickReply `json:"clicks"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

type DeleteLinkReply struct{}

type StatsRequest struct {
	// LinkID zero asks for every link of the caller.
	LinkID int64
}

type StatsReply = domain.ClickStats

type RedirectRequest struct {
	Code          string
	Referrer      string
	UserAgent     string
	ClientAddress string
}

type RedirectReply struct {
	Location string
}

// Redirect makes the reply encode as a 302 to Location.
func (r *RedirectReply) Redirect() (string, int) {
	return r.Location, http.StatusFound
}

// InfoReply describes the service at the root path.
type InfoReply struct {
	Message string `json:"message"`
	Health  string `json:"health"`
}

type HealthReply struct {
	Status string `json:"status"`
}
