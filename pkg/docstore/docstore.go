// Package docstore provides SQLite FTS5-backed retrieval of market and
// regulatory documents for the market intelligence and risk agents.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
)

// ErrStoreUnavailable is returned when the underlying store cannot be queried.
var ErrStoreUnavailable = errors.New("document store unavailable")

// Filters narrows a query to a city and/or document category. Zero values
// match everything.
type Filters struct {
	City     string
	Category analysis.DocCategory
}

// Store is a full-text document store over SQLite FTS5.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	title, content, content='documents', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
	INSERT INTO documents_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
	INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
	INSERT INTO documents_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END;
`

// Open opens or creates the document store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize document store schema: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{
		db:     db,
		logger: logx.NewLogger("docstore"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close document store: %w", err)
	}
	return nil
}

// Put inserts or replaces a document.
func (s *Store) Put(ctx context.Context, doc analysis.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, title, content, category, city)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Content, string(doc.Category), doc.City)
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Query runs a full-text search and returns up to k documents ordered by
// relevance. Relevance is derived from the FTS5 bm25 rank and normalized to
// (0, 1].
func (s *Store) Query(ctx context.Context, text string, k int, filters Filters) ([]analysis.Document, error) {
	if k <= 0 {
		k = 5
	}

	ftsQuery := buildFTSQuery(text)
	if ftsQuery == "" {
		return nil, nil
	}

	query := `
		SELECT d.id, d.title, d.content, d.category, d.city, bm25(documents_fts) AS rank
		FROM documents_fts f
		JOIN documents d ON d.rowid = f.rowid
		WHERE documents_fts MATCH ?
	`
	args := []any{ftsQuery}

	if filters.Category != "" {
		query += " AND d.category = ?"
		args = append(args, string(filters.Category))
	}
	if filters.City != "" {
		query += " AND (d.city = ? OR d.city = '')"
		args = append(args, filters.City)
	}

	query += fmt.Sprintf(" ORDER BY rank LIMIT %d", k)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FTS query failed: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close() //nolint:errcheck // Close in defer is safe

	var docs []analysis.Document
	for rows.Next() {
		var doc analysis.Document
		var category string
		var rank float64
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &category, &doc.City, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		doc.Category = analysis.DocCategory(category)
		// bm25 ranks are negative in FTS5, more negative = more relevant
		doc.Relevance = 1.0 / (1.0 + math.Exp(rank))
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document row iteration error: %w", err)
	}

	s.logger.Debug("query %q (city=%s category=%s) returned %d documents", text, filters.City, filters.Category, len(docs))
	return docs, nil
}

// QueryDocuments is a convenience wrapper over Query used by the agents,
// which pass filters as scalars.
func (s *Store) QueryDocuments(ctx context.Context, text string, k int, city string, category analysis.DocCategory) ([]analysis.Document, error) {
	return s.Query(ctx, text, k, Filters{City: city, Category: category})
}

// buildFTSQuery joins the search terms with OR, quoting each term to keep
// FTS5 operators out of user input.
func buildFTSQuery(text string) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
