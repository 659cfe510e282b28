package store

import (
	"database/sql"
	"fmt"

	"howhite/internal/logging"
)

// Schema versions:
// v1: articles, tags
// v2: article_tags link table for tag filtering offline
const CurrentSchemaVersion = 2

var schemaSteps = []string{
	1: `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT 0,
		body TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_slug ON articles(slug);
	CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at);

	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_slug ON tags(slug);
	`,
	2: `
	CREATE TABLE IF NOT EXISTS article_tags (
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		tag_id TEXT NOT NULL,
		PRIMARY KEY(article_id, tag_id)
	);
	CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags(tag_id);
	`,
}

// SchemaVersion reads PRAGMA user_version.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate applies every step above the stored version, one transaction each.
func migrate(db *sql.DB) error {
	from, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if from > CurrentSchemaVersion {
		return fmt.Errorf("cache schema v%d is newer than supported v%d", from, CurrentSchemaVersion)
	}
	for v := from + 1; v <= CurrentSchemaVersion; v++ {
		logging.StoreDebug("Applying cache schema v%d", v)
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate v%d: %w", v, err)
		}
		if _, err := tx.Exec(schemaSteps[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate v%d: %w", v, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate v%d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate v%d: %w", v, err)
		}
	}
	if from < CurrentSchemaVersion {
		logging.Store("Cache schema migrated v%d -> v%d", from, CurrentSchemaVersion)
	}
	return nil
}
