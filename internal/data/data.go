package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-shortlink/internal/conf"
	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewLinkRepo,
	NewClickRepo,
	NewLinkCache,
	NewStatsCache,
)

// Data holds the durable store and the volatile key-value store.
type Data struct {
	db      *sql.DB
	dialect dialect
	kv      kvStore
	rdb     *redis.Client
}

// NewData opens the database, applies migrations and connects the cache.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if c == nil || c.Database == nil {
		return nil, nil, fmt.Errorf("data.database is not configured")
	}

	db, d, err := openDB(c.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := migrateUp(db, d); err != nil {
		db.Close()
		return nil, nil, err
	}

	data := &Data{
		db:      db,
		dialect: d,
	}
	data.kv, data.rdb = newKV(c, helper)

	cleanup := func() {
		helper.Info("message", "closing the data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				helper.Error(err)
			}
		}
		if err := data.db.Close(); err != nil {
			helper.Error(err)
		}
	}

	return data, cleanup, nil
}

func openDB(c *conf.Data_Database) (*sql.DB, dialect, error) {
	d, err := dialectFor(c.Driver)
	if err != nil {
		return nil, dialect{}, err
	}

	db, err := sql.Open(d.driver, c.Source)
	if err != nil {
		return nil, dialect{}, fmt.Errorf("failed to open database: %w", err)
	}

	if d.name == dialectSQLite {
		// A single connection keeps in-memory databases alive and avoids
		// SQLITE_BUSY between writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if c.MaxOpenConns > 0 {
			db.SetMaxOpenConns(c.MaxOpenConns)
		}
		if c.MaxIdleConns > 0 {
			db.SetMaxIdleConns(c.MaxIdleConns)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dialect{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, d, nil
}

func newKV(c *conf.Data, log *log.Helper) (kvStore, *redis.Client) {
	driver := "none"
	if c.Cache != nil && c.Cache.Driver != "" {
		driver = c.Cache.Driver
	} else if c.Redis != nil && c.Redis.Addr != "" {
		driver = "redis"
	}

	switch driver {
	case "redis":
		if c.Redis == nil || c.Redis.Addr == "" {
			log.Warn("message", "cache driver is redis but data.redis.addr is empty, caching disabled")
			return noopKV{}, nil
		}
		rdb := redis.NewClient(&redis.Options{
			Network:      c.Redis.Network,
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			DialTimeout:  c.Redis.DialTimeout.AsDuration(),
			ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
			WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// The redirect path degrades to the database while redis is down, so
		// an unreachable redis at boot is not fatal.
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnf("redis ping failed, continuing with degraded cache: %v", err)
		}
		return &redisKV{rdb: rdb}, rdb
	case "memory":
		return newMemoryKV(), nil
	case "none":
		return noopKV{}, nil
	default:
		log.Warnf("unknown cache driver %q, caching disabled", driver)
		return noopKV{}, nil
	}
}

// inTx runs fn in a transaction, committing when fn returns nil.
func (d *Data) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

// storeErr marks a database failure as a store outage.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
