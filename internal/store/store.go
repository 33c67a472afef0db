// Package store persists crawled documents in SQLite so repeat questions
// skip refetching pages already seen.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// admissionKeywords gate which URLs are worth persisting. Only sources
// with durable content make the cut; storefronts and feeds churn too fast
// to be useful on a later read.
var admissionKeywords = []string{"news", "article", "youtube", "pdf", "arxiv"}

const schema = `
CREATE TABLE IF NOT EXISTS crawled_data (
	url        TEXT PRIMARY KEY,
	title      TEXT,
	snippet    TEXT,
	image_url  TEXT,
	date       TEXT,
	language   TEXT,
	type       TEXT,
	pdf_url    TEXT,
	content    TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Document is one crawled page as stored.
type Document struct {
	URL       string
	Title     string
	Snippet   string
	ImageURL  string
	Date      string
	Language  string
	Type      string
	PDFURL    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and parent directory) if needed and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// under concurrent crawls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Admissible reports whether url belongs in the store.
func Admissible(url string) bool {
	lowered := strings.ToLower(url)
	for _, keyword := range admissionKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// Get returns the stored document for url, or nil when absent.
func (s *Store) Get(ctx context.Context, url string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, title, snippet, image_url, date, language, type, pdf_url, content, created_at, updated_at
		FROM crawled_data WHERE url = ?`, url)
	var doc Document
	err := row.Scan(&doc.URL, &doc.Title, &doc.Snippet, &doc.ImageURL, &doc.Date,
		&doc.Language, &doc.Type, &doc.PDFURL, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return &doc, nil
}

const upsertSQL = `
INSERT INTO crawled_data (url, title, snippet, image_url, date, language, type, pdf_url, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	title      = excluded.title,
	snippet    = excluded.snippet,
	image_url  = excluded.image_url,
	date       = excluded.date,
	language   = excluded.language,
	type       = excluded.type,
	pdf_url    = excluded.pdf_url,
	content    = excluded.content,
	updated_at = excluded.updated_at`

// Put upserts one document. Inadmissible URLs are silently dropped; the
// original created_at survives updates.
func (s *Store) Put(ctx context.Context, doc *Document) error {
	if !Admissible(doc.URL) {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, upsertSQL,
		doc.URL, doc.Title, doc.Snippet, doc.ImageURL, doc.Date,
		doc.Language, doc.Type, doc.PDFURL, doc.Content, now, now)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	return nil
}

// PutBulk writes every admissible document in one transaction. Documents
// without content or with an inadmissible URL are skipped.
func (s *Store) PutBulk(ctx context.Context, docs []*Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	written := 0
	for _, doc := range docs {
		if doc.Content == "" || !Admissible(doc.URL) {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			doc.URL, doc.Title, doc.Snippet, doc.ImageURL, doc.Date,
			doc.Language, doc.Type, doc.PDFURL, doc.Content, now, now); err != nil {
			return written, fmt.Errorf("upserting %s: %w", doc.URL, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("committing transaction: %w", err)
	}
	return written, nil
}
