package data

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const clickColumns = "id, link_id, clicked_at, referrer, user_agent, client_address, device_type, traffic_source, country_code"

type clickRepo struct {
	data *Data
	log  *log.Helper
}

// NewClickRepo returns the SQL click repository.
func NewClickRepo(data *Data, logger log.Logger) domain.ClickRepository {
	return &clickRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *clickRepo) Insert(ctx context.Context, click *domain.Click) error {
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	click.ClickedAt = click.ClickedAt.UTC()

	err := r.data.db.QueryRowContext(ctx,
		`INSERT INTO clicks (link_id, clicked_at, referrer, user_agent, client_address, device_type, traffic_source, country_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		click.LinkID, click.ClickedAt, truncate(click.Referrer, 255), click.UserAgent, truncate(click.ClientAddress, 45),
		click.DeviceType, click.TrafficSource, click.CountryCode,
	).Scan(&click.ID)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *clickRepo) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	var n int64
	if err := r.data.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID,
	).Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// ListByLink pages by click id. The cursor is the base64 id of the last
// click of the previous page.
func (r *clickRepo) ListByLink(ctx context.Context, linkID int64, cursor string, limit int) (*domain.ClickPage, error) {
	before, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether another page exists.
	rows, err := r.data.db.QueryContext(ctx,
		`SELECT `+clickColumns+` FROM clicks
		 WHERE link_id = $1 AND id < $2
		 ORDER BY id DESC LIMIT $3`,
		linkID, before, limit+1)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	clicks := make([]*domain.Click, 0, limit+1)
	for rows.Next() {
		var c domain.Click
		if err := rows.Scan(&c.ID, &c.LinkID, &c.ClickedAt, &c.Referrer, &c.UserAgent, &c.ClientAddress,
			&c.DeviceType, &c.TrafficSource, &c.CountryCode); err != nil {
			return nil, storeErr(err)
		}
		c.ClickedAt = c.ClickedAt.UTC()
		clicks = append(clicks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	page := &domain.ClickPage{Clicks: clicks}
	if len(clicks) > limit {
		page.Clicks = clicks[:limit]
		page.HasMore = true
		page.NextCursor = encodeCursor(page.Clicks[limit-1].ID)
	}
	return page, nil
}

func encodeCursor(id int64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return math.MaxInt64, nil
	}
	b, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid cursor format", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid cursor format", domain.ErrValidation)
	}
	return id, nil
}

// statsScope builds the WHERE clause shared by every aggregate query. The
// placeholders it hands out carry their argument index, so they may appear
// in any order in the final statement.
type statsScope struct {
	d     dialect
	where string
	args  []any
}

func newStatsScope(d dialect, q domain.StatsQuery) *statsScope {
	s := &statsScope{d: d}
	s.where = "l.owner_id = " + s.arg(q.OwnerID)
	if q.LinkID != 0 {
		s.where += " AND c.link_id = " + s.arg(q.LinkID)
	}
	return s
}

func (s *statsScope) arg(v any) string {
	s.args = append(s.args, v)
	return s.d.placeholder(len(s.args))
}

func (s *statsScope) clone() *statsScope {
	return &statsScope{d: s.d, where: s.where, args: append([]any(nil), s.args...)}
}

const statsFrom = ` FROM clicks c JOIN links l ON l.id = c.link_id WHERE `

func (r *clickRepo) Aggregate(ctx context.Context, q domain.StatsQuery) (*domain.ClickStats, error) {
	now := q.Now.UTC()
	if q.Now.IsZero() {
		now = time.Now().UTC()
	}
	d := r.data.dialect
	scope := newStatsScope(d, q)

	stats := &domain.ClickStats{GeneratedAt: now}

	s := scope.clone()
	today, week, month := s.arg(domain.StartOfDay(now)), s.arg(domain.StartOfWeek(now)), s.arg(domain.StartOfMonth(now))
	if err := r.data.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		 COALESCE(SUM(CASE WHEN c.clicked_at >= `+today+` THEN 1 ELSE 0 END), 0),
		 COALESCE(SUM(CASE WHEN c.clicked_at >= `+week+` THEN 1 ELSE 0 END), 0),
		 COALESCE(SUM(CASE WHEN c.clicked_at >= `+month+` THEN 1 ELSE 0 END), 0)`+
			statsFrom+s.where,
		s.args...,
	).Scan(&stats.TotalClicks, &stats.ClicksToday, &stats.ClicksThisWeek, &stats.ClicksThisMonth); err != nil {
		return nil, storeErr(err)
	}

	var err error
	days := dayLabels(now, q.Days)
	if stats.ByDay, err = r.buckets(ctx, scope, d.bucket(d.dayBucket, "c.clicked_at"), days.since, days.labels); err != nil {
		return nil, err
	}
	weeks := weekLabels(now, q.Weeks)
	if stats.ByWeek, err = r.buckets(ctx, scope, d.bucket(d.weekBucket, "c.clicked_at"), weeks.since, weeks.labels); err != nil {
		return nil, err
	}
	months := monthLabels(now, q.Months)
	if stats.ByMonth, err = r.buckets(ctx, scope, d.bucket(d.monthBucket, "c.clicked_at"), months.since, months.labels); err != nil {
		return nil, err
	}

	if stats.TopReferrers, err = r.groups(ctx, scope, "c.referrer", true, q.TopReferrers); err != nil {
		return nil, err
	}
	if stats.ByDevice, err = r.groups(ctx, scope, "c.device_type", false, 0); err != nil {
		return nil, err
	}
	if stats.BySource, err = r.groups(ctx, scope, "c.traffic_source", false, 0); err != nil {
		return nil, err
	}
	if stats.ByCountry, err = r.groups(ctx, scope, "c.country_code", false, 0); err != nil {
		return nil, err
	}

	return stats, nil
}

// buckets counts clicks per bucket since the first label and returns one
// entry per label, zero filled.
func (r *clickRepo) buckets(ctx context.Context, scope *statsScope, expr string, since time.Time, labels []string) ([]domain.BucketCount, error) {
	if len(labels) == 0 {
		return []domain.BucketCount{}, nil
	}
	s := scope.clone()
	rows, err := r.data.db.QueryContext(ctx,
		`SELECT `+expr+`, COUNT(*)`+statsFrom+s.where+
			` AND c.clicked_at >= `+s.arg(since)+
			` GROUP BY 1`,
		s.args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(labels))
	for rows.Next() {
		var (
			bucket string
			n      int64
		)
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, storeErr(err)
		}
		counts[bucket] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	out := make([]domain.BucketCount, 0, len(labels))
	for _, label := range labels {
		out = append(out, domain.BucketCount{Bucket: label, Count: counts[label]})
	}
	return out, nil
}

// groups counts clicks per distinct column value, largest first.
func (r *clickRepo) groups(ctx context.Context, scope *statsScope, column string, skipEmpty bool, limit int) ([]domain.GroupCount, error) {
	s := scope.clone()
	query := `SELECT ` + column + `, COUNT(*)` + statsFrom + s.where
	if skipEmpty {
		query += ` AND ` + column + ` <> ''`
	}
	query += ` GROUP BY ` + column + ` ORDER BY 2 DESC, 1 ASC`
	if limit > 0 {
		query += ` LIMIT ` + s.arg(limit)
	}

	rows, err := r.data.db.QueryContext(ctx, query, s.args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	out := []domain.GroupCount{}
	for rows.Next() {
		var g domain.GroupCount
		var value sql.NullString
		if err := rows.Scan(&value, &g.Count); err != nil {
			return nil, storeErr(err)
		}
		g.Value = value.String
		if g.Value == "" {
			g.Value = "Unknown"
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

type bucketRange struct {
	since  time.Time
	labels []string
}

func dayLabels(now time.Time, n int) bucketRange {
	if n <= 0 {
		return bucketRange{}
	}
	start := domain.StartOfDay(now).AddDate(0, 0, -(n - 1))
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return bucketRange{since: start, labels: labels}
}

func weekLabels(now time.Time, n int) bucketRange {
	if n <= 0 {
		return bucketRange{}
	}
	start := domain.StartOfWeek(now).AddDate(0, 0, -7*(n-1))
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, start.AddDate(0, 0, 7*i).Format("2006-01-02"))
	}
	return bucketRange{since: start, labels: labels}
}

func monthLabels(now time.Time, n int) bucketRange {
	if n <= 0 {
		return bucketRange{}
	}
	start := domain.StartOfMonth(now).AddDate(0, -(n - 1), 0)
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, start.AddDate(0, i, 0).Format("2006-01"))
	}
	return bucketRange{since: start, labels: labels}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
