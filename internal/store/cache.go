// Package store keeps an offline copy of blog articles and tags in SQLite.
//
// The cache is write-through: the feed layer stores whatever the backend
// returned, and reads from here when the backend is unreachable. Rows are
// JSON payloads keyed by id, with the columns needed for ordering and lookup
// pulled out beside them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"howhite/internal/blog"
	"howhite/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no cached row.
var ErrNotFound = errors.New("not found in cache")

// Cache is the SQLite article cache.
type Cache struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// Stats summarises the cache contents.
type Stats struct {
	Path      string
	Articles  int64
	Tags      int64
	SizeBytes int64
	LastFetch time.Time // zero when empty
}

// Open opens (creating if needed) the cache database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Cache, error) {
	defer logging.Begin(logging.CategoryStore, "store.Open", "").End(nil)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("%s failed: %v", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Article cache ready at %s", path)
	return &Cache{db: db, path: path, now: time.Now}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	logging.StoreDebug("Closing article cache")
	return c.db.Close()
}

// Path returns the database path.
func (c *Cache) Path() string { return c.path }

// PutArticles inserts or replaces articles and their tag links.
func (c *Cache) PutArticles(ctx context.Context, articles []blog.Article) error {
	if len(articles) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fetched := c.now().UnixNano()
	return c.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range articles {
			body, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal article %s: %w", a.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO articles (id, slug, title, created_at, body, fetched_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				a.ID, a.Slug, a.Title, a.CreatedAt.UnixNano(), string(body), fetched,
			); err != nil {
				return fmt.Errorf("store article %s: %w", a.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, a.ID); err != nil {
				return fmt.Errorf("clear tags of %s: %w", a.ID, err)
			}
			for _, t := range a.Tags {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)`, a.ID, t.ID,
				); err != nil {
					return fmt.Errorf("link tag %s: %w", t.ID, err)
				}
			}
		}
		logging.StoreDebug("Cached %d articles", len(articles))
		return nil
	})
}

// Articles returns up to limit cached articles, newest first. limit <= 0
// returns all of them.
func (c *Cache) Articles(ctx context.Context, limit int) ([]blog.Article, error) {
	if limit <= 0 {
		limit = -1
	}
	return c.queryArticles(ctx,
		`SELECT body FROM articles ORDER BY created_at DESC, id LIMIT ?`, limit)
}

// ArticlesByTag returns the cached articles carrying tagID, newest first.
func (c *Cache) ArticlesByTag(ctx context.Context, tagID string) ([]blog.Article, error) {
	return c.queryArticles(ctx,
		`SELECT a.body FROM articles a
		 JOIN article_tags t ON t.article_id = a.id
		 WHERE t.tag_id = ?
		 ORDER BY a.created_at DESC, a.id`, tagID)
}

// ArticleBySlug returns one cached article.
func (c *Cache) ArticleBySlug(ctx context.Context, slug string) (*blog.Article, error) {
	list, err := c.queryArticles(ctx, `SELECT body FROM articles WHERE slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("article %q: %w", slug, ErrNotFound)
	}
	return &list[0], nil
}

func (c *Cache) queryArticles(ctx context.Context, query string, args ...any) ([]blog.Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []blog.Article
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		var a blog.Article
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			logging.StoreDebug("Skipping unreadable cached article: %v", err)
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PutTags inserts or replaces tags.
func (c *Cache) PutTags(ctx context.Context, tags []blog.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fetched := c.now().UnixNano()
	return c.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tags {
			body, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("marshal tag %s: %w", t.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO tags (id, slug, name, body, fetched_at) VALUES (?, ?, ?, ?, ?)`,
				t.ID, t.Slug, t.Name, string(body), fetched,
			); err != nil {
				return fmt.Errorf("store tag %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// Tags returns all cached tags ordered by name.
func (c *Cache) Tags(ctx context.Context) ([]blog.Tag, error) {
	return c.queryTags(ctx, `SELECT body FROM tags ORDER BY name, id`)
}

// TagBySlug returns one cached tag.
func (c *Cache) TagBySlug(ctx context.Context, slug string) (*blog.Tag, error) {
	list, err := c.queryTags(ctx, `SELECT body FROM tags WHERE slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("tag %q: %w", slug, ErrNotFound)
	}
	return &list[0], nil
}

func (c *Cache) queryTags(ctx context.Context, query string, args ...any) ([]blog.Tag, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var out []blog.Tag
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		var t blog.Tag
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats reports row counts, file size and the newest fetch time.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{Path: c.path}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&st.Articles); err != nil {
		return st, fmt.Errorf("count articles: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&st.Tags); err != nil {
		return st, fmt.Errorf("count tags: %w", err)
	}
	var last sql.NullInt64
	if err := c.db.QueryRowContext(ctx,
		`SELECT MAX(f) FROM (SELECT MAX(fetched_at) AS f FROM articles UNION ALL SELECT MAX(fetched_at) FROM tags)`,
	).Scan(&last); err != nil {
		return st, fmt.Errorf("last fetch: %w", err)
	}
	if last.Valid {
		st.LastFetch = time.Unix(0, last.Int64)
	}
	for _, p := range []string{c.path, c.path + "-wal"} {
		if fi, err := os.Stat(p); err == nil {
			st.SizeBytes += fi.Size()
		}
	}
	return st, nil
}

// Prune removes rows fetched before now-maxAge and returns how many articles
// were dropped. maxAge <= 0 is a no-op.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge).UnixNano()
	var n int64
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE fetched_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("prune articles: %w", err)
		}
		n, _ = res.RowsAffected()
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE fetched_at < ?`, cutoff); err != nil {
			return fmt.Errorf("prune tags: %w", err)
		}
		return nil
	})
	if err == nil && n > 0 {
		logging.Store("Pruned %d stale articles", n)
	}
	return n, err
}

// Clear deletes every cached row.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"article_tags", "articles", "tags"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		logging.Store("Article cache cleared")
		return nil
	})
}

func (c *Cache) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
