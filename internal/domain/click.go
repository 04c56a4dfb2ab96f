package domain

import "time"

// Click is one recorded redirect. Enrichment fields are derived by the
// recorder after the redirect has been answered.
type Click struct {
	ID            int64
	LinkID        int64
	ClickedAt     time.Time
	Referrer      string
	UserAgent     string
	ClientAddress string

	DeviceType    string
	TrafficSource string
	CountryCode   string
}

// ClickPage is one page of a link's clicks, newest first.
type ClickPage struct {
	Clicks     []*Click
	NextCursor string
	HasMore    bool
}

// BucketCount is the number of clicks in one time bucket.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// GroupCount is the number of clicks sharing one value.
type GroupCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// ClickStats aggregates the clicks of one link or of all an owner's links.
type ClickStats struct {
	TotalClicks     int64         `json:"total_clicks"`
	ClicksToday     int64         `json:"clicks_today"`
	ClicksThisWeek  int64         `json:"clicks_this_week"`
	ClicksThisMonth int64         `json:"clicks_this_month"`
	ByDay           []BucketCount `json:"by_day"`
	ByWeek          []BucketCount `json:"by_week"`
	ByMonth         []BucketCount `json:"by_month"`
	TopReferrers    []GroupCount  `json:"top_referrers"`
	ByDevice        []GroupCount  `json:"by_device"`
	BySource        []GroupCount  `json:"by_source"`
	ByCountry       []GroupCount  `json:"by_country"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// StatsQuery scopes an aggregation. LinkID zero means every link of Owner.
type StatsQuery struct {
	OwnerID      string
	LinkID       int64
	Now          time.Time
	Days         int
	Weeks        int
	Months       int
	TopReferrers int
}

// StartOfDay is midnight UTC of t's day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek is midnight UTC of the Monday of t's ISO week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth is midnight UTC of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
