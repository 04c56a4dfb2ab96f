package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const linkColumns = "id, owner_id, short_code, target_url, custom_code, expires_at, created_at, updated_at"

type linkRepo struct {
	data *Data
	log  *log.Helper
}

// NewLinkRepo returns the SQL link repository.
func NewLinkRepo(data *Data, logger log.Logger) domain.LinkRepository {
	return &linkRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		l         domain.Link
		expiresAt sql.NullTime
		updatedAt sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.OwnerID, &l.ShortCode, &l.TargetURL, &l.CustomCode, &expiresAt, &l.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		l.ExpiresAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		l.UpdatedAt = &t
	}
	return &l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (r *linkRepo) Create(ctx context.Context, link *domain.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.CreatedAt = link.CreatedAt.UTC()

	err := r.data.db.QueryRowContext(ctx,
		`INSERT INTO links (owner_id, short_code, target_url, custom_code, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		link.OwnerID, link.ShortCode, link.TargetURL, link.CustomCode, nullTime(link.ExpiresAt), link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeConflict
		}
		return storeErr(err)
	}
	return nil
}

func (r *linkRepo) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	row := r.data.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE short_code = $1`, code)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return l, nil
}

func (r *linkRepo) GetForOwner(ctx context.Context, id int64, owner string) (*domain.Link, error) {
	row := r.data.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
	return ownedLink(row, owner)
}

func ownedLink(row rowScanner, owner string) (*domain.Link, error) {
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if l.OwnerID != owner {
		return nil, domain.ErrForbidden
	}
	return l, nil
}

func (r *linkRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*domain.Link, int, error) {
	var total int
	if err := r.data.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE owner_id = $1`, owner,
	).Scan(&total); err != nil {
		return nil, 0, storeErr(err)
	}
	if total == 0 {
		return []*domain.Link{}, 0, nil
	}

	rows, err := r.data.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		owner, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()

	links := make([]*domain.Link, 0, pageSize)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, 0, storeErr(err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr(err)
	}
	return links, total, nil
}

func (r *linkRepo) Update(ctx context.Context, id int64, owner string, patch *domain.LinkPatch) (*domain.Link, error) {
	var updated *domain.Link
	err := r.data.inTx(ctx, func(tx *sql.Tx) error {
		l, err := ownedLink(tx.QueryRowContext(ctx,
			`SELECT `+linkColumns+` FROM links WHERE id = $1`+r.data.dialect.forUpdate, id), owner)
		if err != nil {
			return err
		}

		patch.Apply(l, time.Now().UTC())

		if _, err := tx.ExecContext(ctx,
			`UPDATE links SET target_url = $1, expires_at = $2, updated_at = $3 WHERE id = $4`,
			l.TargetURL, nullTime(l.ExpiresAt), nullTime(l.UpdatedAt), l.ID,
		); err != nil {
			return storeErr(err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *linkRepo) Delete(ctx context.Context, id int64, owner string) (*domain.Link, error) {
	var deleted *domain.Link
	err := r.data.inTx(ctx, func(tx *sql.Tx) error {
		l, err := ownedLink(tx.QueryRowContext(ctx,
			`SELECT `+linkColumns+` FROM links WHERE id = $1`+r.data.dialect.forUpdate, id), owner)
		if err != nil {
			return err
		}

		// SQLite only cascades with foreign keys enabled on the connection.
		if _, err := tx.ExecContext(ctx, `DELETE FROM clicks WHERE link_id = $1`, l.ID); err != nil {
			return storeErr(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, l.ID); err != nil {
			return storeErr(err)
		}
		deleted = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.WithContext(ctx).Infof("deleted link %d (%s)", deleted.ID, deleted.ShortCode)
	return deleted, nil
}
