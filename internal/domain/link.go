package domain

import (
	"fmt"
	"time"
)

// Link maps a short code to a target URL on behalf of an owner.
type Link struct {
	ID         int64
	OwnerID    string
	ShortCode  string
	TargetURL  string
	CustomCode bool
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// IsExpired reports whether the link can no longer be redirected at now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// CacheEntry builds the redirect cache projection of the link.
func (l *Link) CacheEntry() *CacheEntry {
	return &CacheEntry{
		ShortCode: l.ShortCode,
		LinkID:    l.ID,
		TargetURL: l.TargetURL,
		ExpiresAt: l.ExpiresAt,
	}
}

// NewLink is the input for creating a link. An empty CustomCode asks for a
// generated one.
type NewLink struct {
	OwnerID    string
	TargetURL  string
	CustomCode string
	ExpiresAt  *time.Time
}

// Validate checks the target URL and expiration against now.
func (n *NewLink) Validate(now time.Time) error {
	if err := ValidateTargetURL(n.TargetURL); err != nil {
		return err
	}
	return validateExpiration(n.ExpiresAt, now)
}

// LinkPatch is a partial update. Nil fields are left untouched.
type LinkPatch struct {
	TargetURL       *string
	ExpiresAt       *time.Time
	ClearExpiration bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *LinkPatch) IsEmpty() bool {
	return p.TargetURL == nil && p.ExpiresAt == nil && !p.ClearExpiration
}

// Validate checks the patched fields against now.
func (p *LinkPatch) Validate(now time.Time) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if p.ExpiresAt != nil && p.ClearExpiration {
		return fmt.Errorf("%w: expires_at and clear_expiration are mutually exclusive", ErrValidation)
	}
	if p.TargetURL != nil {
		if err := ValidateTargetURL(*p.TargetURL); err != nil {
			return err
		}
	}
	return validateExpiration(p.ExpiresAt, now)
}

// Apply writes the patch onto l and stamps UpdatedAt.
func (p *LinkPatch) Apply(l *Link, now time.Time) {
	if p.TargetURL != nil {
		l.TargetURL = *p.TargetURL
	}
	if p.ExpiresAt != nil {
		exp := p.ExpiresAt.UTC()
		l.ExpiresAt = &exp
	}
	if p.ClearExpiration {
		l.ExpiresAt = nil
	}
	l.UpdatedAt = &now
}

func validateExpiration(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && !expiresAt.After(now) {
		return fmt.Errorf("%w: expires_at must be in the future", ErrValidation)
	}
	return nil
}

// CacheEntry is the value stored in the redirect cache. ExpiresAt is copied
// from the link at write time so a cached entry is never served past the
// link's real expiration.
type CacheEntry struct {
	ShortCode string     `json:"-"`
	LinkID    int64      `json:"link_id"`
	TargetURL string     `json:"target_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the copied expiration has passed at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}
