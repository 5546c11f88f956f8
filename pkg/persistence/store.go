// Package persistence stores completed analyses and their message histories
// in SQLite so past runs can be inspected and replayed.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

// ErrNotFound is returned when no report exists for a request ID.
var ErrNotFound = errors.New("analysis report not found")

// Store persists analysis reports and message histories.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	request_id TEXT PRIMARY KEY,
	recommendation TEXT NOT NULL,
	confidence REAL NOT NULL,
	degraded INTEGER NOT NULL,
	completed_at TIMESTAMP NOT NULL,
	report_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_messages (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	message_json TEXT NOT NULL,
	FOREIGN KEY (request_id) REFERENCES analysis_reports(request_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_request ON analysis_messages(request_id, seq);
CREATE INDEX IF NOT EXISTS idx_reports_completed ON analysis_reports(completed_at);
`

// Open opens or creates the report store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping report store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize report store schema: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{
		db:     db,
		logger: logx.NewLogger("persistence"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close report store: %w", err)
	}
	return nil
}

// SaveAnalysis stores a completed analysis and its full message history in
// one transaction.
func (s *Store) SaveAnalysis(ctx context.Context, result *analysis.InvestmentAnalysis, history []*proto.AgentMsg) error {
	if result == nil {
		return fmt.Errorf("analysis result is nil")
	}

	reportJSON, err := result.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize analysis %s: %w", result.RequestID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_reports
			(request_id, recommendation, confidence, degraded, completed_at, report_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.RequestID, string(result.Recommendation), result.OverallConfidence,
		boolToInt(result.Degraded), result.CompletedAt.UTC(), string(reportJSON))
	if err != nil {
		return fmt.Errorf("failed to store report %s: %w", result.RequestID, err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM analysis_messages WHERE request_id = ?`, result.RequestID)
	if err != nil {
		return fmt.Errorf("failed to clear prior messages for %s: %w", result.RequestID, err)
	}

	for seq, msg := range history {
		msgJSON, err := msg.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize message %s: %w", msg.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO analysis_messages (id, request_id, seq, message_json)
			VALUES (?, ?, ?, ?)
		`, msg.ID, result.RequestID, seq, string(msgJSON))
		if err != nil {
			return fmt.Errorf("failed to store message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis %s: %w", result.RequestID, err)
	}

	s.logger.Debug("stored analysis %s with %d messages", result.RequestID, len(history))
	return nil
}

// GetAnalysis loads a stored analysis by request ID.
func (s *Store) GetAnalysis(ctx context.Context, requestID string) (*analysis.InvestmentAnalysis, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM analysis_reports WHERE request_id = ?`, requestID,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", requestID, err)
	}

	result, err := analysis.InvestmentAnalysisFromJSON([]byte(reportJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", requestID, err)
	}
	return result, nil
}

// GetMessages loads the message history for a request in recorded order.
func (s *Store) GetMessages(ctx context.Context, requestID string) ([]*proto.AgentMsg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_json FROM analysis_messages
		WHERE request_id = ? ORDER BY seq
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for %s: %w", requestID, err)
	}
	defer rows.Close() //nolint:errcheck // Close in defer is safe

	var msgs []*proto.AgentMsg
	for rows.Next() {
		var msgJSON string
		if err := rows.Scan(&msgJSON); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg, err := proto.FromJSON([]byte(msgJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message row iteration error: %w", err)
	}
	return msgs, nil
}

// ReportSummary is one row of ListRecent.
type ReportSummary struct {
	RequestID      string
	Recommendation string
	Confidence     float64
	Degraded       bool
	CompletedAt    time.Time
}

// ListRecent returns the most recent reports, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, recommendation, confidence, degraded, completed_at
		FROM analysis_reports ORDER BY completed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Close in defer is safe

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		var degraded int
		if err := rows.Scan(&r.RequestID, &r.Recommendation, &r.Confidence, &degraded, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.Degraded = degraded != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report row iteration error: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
