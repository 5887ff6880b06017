// Package storage provides a SQLite-backed audit journal of created
// markets and completed scans. Pipeline state itself is in-memory only;
// the journal is a durable record of what was sent downstream.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/darkalpha/marketscout/internal/models"
)

// Journal wraps a SQLite database for audit records.
type Journal struct {
	db           *sql.DB
	maxCreations int
}

// New opens or creates the SQLite database at dbPath. An empty dbPath
// defaults to $TMPDIR/marketscout/journal.db.
func New(maxCreations int, dbPath string) (*Journal, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "marketscout", "journal.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	j := &Journal{db: db, maxCreations: maxCreations}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS creations (
			id            TEXT PRIMARY KEY,
			market_ref    TEXT NOT NULL,
			question      TEXT NOT NULL,
			category      TEXT NOT NULL,
			urgency       TEXT NOT NULL,
			confidence    REAL NOT NULL,
			duration_days INTEGER NOT NULL,
			liquidity     REAL NOT NULL,
			source_title  TEXT,
			source_link   TEXT,
			source_topic  TEXT,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scans (
			id                    TEXT PRIMARY KEY,
			started_at            INTEGER NOT NULL,
			candidates_found      INTEGER NOT NULL,
			opportunities_created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_created_at ON creations(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Creation is one journaled downstream market creation.
type Creation struct {
	ID           string
	MarketRef    string
	Question     string
	Category     models.Category
	Urgency      models.Urgency
	Confidence   float64
	DurationDays int
	Liquidity    float64
	SourceTitle  string
	SourceLink   string
	SourceTopic  string
	CreatedAt    time.Time
}

// RecordCreation journals one created market and rotates old rows beyond
// the configured cap.
func (j *Journal) RecordCreation(opp models.Opportunity, marketRef string) error {
	_, err := j.db.Exec(`
		INSERT INTO creations
			(id, market_ref, question, category, urgency, confidence,
			 duration_days, liquidity, source_title, source_link, source_topic, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), marketRef, opp.Question, string(opp.Category), string(opp.Urgency),
		opp.Confidence, opp.SuggestedDurationDays, opp.SuggestedLiquidity,
		opp.SourceRef.Title, opp.SourceRef.Link, opp.SourceRef.Topic,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert creation: %w", err)
	}

	if j.maxCreations > 0 {
		if _, err := j.db.Exec(`
			DELETE FROM creations WHERE id NOT IN (
				SELECT id FROM creations ORDER BY created_at DESC LIMIT ?
			)`, j.maxCreations); err != nil {
			return fmt.Errorf("failed to rotate creations: %w", err)
		}
	}
	return nil
}

// RecordScan journals one completed cycle.
func (j *Journal) RecordScan(rec models.ScanRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO scans (id, started_at, candidates_found, opportunities_created)
		VALUES (?,?,?,?)`,
		uuid.New().String(), rec.Timestamp.UnixNano(), rec.CandidatesFound, rec.OpportunitiesCreated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

// RecentCreations returns up to limit journaled creations, newest first.
func (j *Journal) RecentCreations(limit int) ([]Creation, error) {
	rows, err := j.db.Query(`
		SELECT id, market_ref, question, category, urgency, confidence,
		       duration_days, liquidity, source_title, source_link, source_topic, created_at
		FROM creations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query creations: %w", err)
	}
	defer rows.Close()

	var out []Creation
	for rows.Next() {
		var c Creation
		var category, urgency string
		var createdAtNano int64
		err := rows.Scan(
			&c.ID, &c.MarketRef, &c.Question, &category, &urgency, &c.Confidence,
			&c.DurationDays, &c.Liquidity, &c.SourceTitle, &c.SourceLink, &c.SourceTopic,
			&createdAtNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creation: %w", err)
		}
		c.Category = models.Category(category)
		c.Urgency = models.Urgency(urgency)
		c.CreatedAt = time.Unix(0, createdAtNano)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreationCount returns the number of journaled creations.
func (j *Journal) CreationCount() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM creations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count creations: %w", err)
	}
	return n, nil
}
