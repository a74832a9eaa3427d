// Package audit persists moderation decisions for later review. Only the
// text hash and length are stored, never the text.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// ErrNotFound is returned when a decision record does not exist.
var ErrNotFound = errors.New("decision record not found")

// SQLiteLog is a SQLite implementation of the decision log.
type SQLiteLog struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCleanup chan struct{}
}

// NewSQLiteLog creates a new SQLite decision log and starts the background
// retention cleanup.
func NewSQLiteLog(dbPath string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	log := &SQLiteLog{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCleanup: make(chan struct{}),
	}

	// Start background cleanup
	if cleanupFreq > 0 {
		go log.startCleanupTask()
	}

	logger.Info("Using SQLite decision log",
		zap.String("path", dbPath),
		zap.Duration("retention", retention))

	return log, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS moderation_decisions (
			id TEXT PRIMARY KEY,
			text_hash TEXT NOT NULL,
			text_length INTEGER NOT NULL,
			level TEXT NOT NULL,
			severity_score REAL NOT NULL,
			is_acceptable BOOLEAN NOT NULL,
			layers_used TEXT NOT NULL,
			issues TEXT NOT NULL,
			processing_time_ms REAL NOT NULL,
			review_provider TEXT,
			review_scores TEXT,
			review_summary TEXT,
			reviewed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON moderation_decisions(created_at);
		CREATE INDEX IF NOT EXISTS idx_decisions_text_hash ON moderation_decisions(text_hash);
	`)
	return err
}

// Record stores a decision record.
func (l *SQLiteLog) Record(ctx context.Context, record *core.DecisionRecord) error {
	layers, issues, err := encodeDetails(record)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO moderation_decisions
			(id, text_hash, text_length, level, severity_score, is_acceptable,
			 layers_used, issues, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.TextHash,
		record.TextLength,
		string(record.Level),
		record.SeverityScore,
		record.IsAcceptable,
		layers,
		issues,
		record.ProcessingTimeMs,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision record: %w", err)
	}
	return nil
}

// AttachReview adds a second opinion to an existing record.
func (l *SQLiteLog) AttachReview(ctx context.Context, id string, review *core.Review) error {
	scores, err := json.Marshal(review.Scores)
	if err != nil {
		return fmt.Errorf("failed to encode review scores: %w", err)
	}

	result, err := l.db.ExecContext(ctx, `
		UPDATE moderation_decisions
		SET review_provider = ?, review_scores = ?, review_summary = ?, reviewed_at = ?
		WHERE id = ?`,
		review.Provider,
		string(scores),
		review.Summary,
		review.ReviewedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update decision record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Cleanup removes records older than the retention window.
func (l *SQLiteLog) Cleanup(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-l.retention)
	result, err := l.db.ExecContext(ctx, `DELETE FROM moderation_decisions WHERE created_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired records: %w", err)
	}

	if removed, err := result.RowsAffected(); err == nil && removed > 0 {
		l.logger.Debug("Cleaned up expired decision records", zap.Int64("removed", removed))
	}
	return nil
}

// startCleanupTask runs retention cleanup on a fixed schedule.
func (l *SQLiteLog) startCleanupTask() {
	ticker := time.NewTicker(l.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.Cleanup(context.Background()); err != nil {
				l.logger.Error("Failed to clean up decision records", zap.Error(err))
			}
		case <-l.stopCleanup:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (l *SQLiteLog) Stop() {
	close(l.stopCleanup)
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// encodeDetails serializes the layers and issues of a record for storage.
func encodeDetails(record *core.DecisionRecord) (layers string, issues string, err error) {
	names := make([]string, len(record.LayersUsed))
	for i, layer := range record.LayersUsed {
		names[i] = string(layer)
	}

	encoded, err := json.Marshal(record.Issues)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode issues: %w", err)
	}
	return strings.Join(names, ","), string(encoded), nil
}
