package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// MySQLLog is a MySQL implementation of the decision log, for deployments
// where several filter instances share one audit store.
type MySQLLog struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCleanup chan struct{}
}

// NewMySQLLog creates a new MySQL decision log and starts the background
// retention cleanup.
func NewMySQLLog(dsn string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*MySQLLog, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mysql database: %w", err)
	}

	if err := initMySQLSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mysql schema: %w", err)
	}

	log := &MySQLLog{
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

	logger.Info("Using MySQL decision log", zap.Duration("retention", retention))

	return log, nil
}

func initMySQLSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS moderation_decisions (
			id VARCHAR(36) PRIMARY KEY,
			text_hash VARCHAR(64) NOT NULL,
			text_length INT NOT NULL,
			level VARCHAR(16) NOT NULL,
			severity_score DOUBLE NOT NULL,
			is_acceptable BOOLEAN NOT NULL,
			layers_used VARCHAR(64) NOT NULL,
			issues TEXT NOT NULL,
			processing_time_ms DOUBLE NOT NULL,
			review_provider VARCHAR(32),
			review_scores TEXT,
			review_summary TEXT,
			reviewed_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL,
			INDEX idx_decisions_created_at (created_at),
			INDEX idx_decisions_text_hash (text_hash)
		)`)
	return err
}

// Record stores a decision record.
func (l *MySQLLog) Record(ctx context.Context, record *core.DecisionRecord) error {
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
func (l *MySQLLog) AttachReview(ctx context.Context, id string, review *core.Review) error {
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
func (l *MySQLLog) Cleanup(ctx context.Context) error {
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
func (l *MySQLLog) startCleanupTask() {
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
func (l *MySQLLog) Stop() {
	close(l.stopCleanup)
}

// Close closes the database connection.
func (l *MySQLLog) Close() error {
	return l.db.Close()
}
