// Package store provides SQLite-backed persistence for tracked questions and
// the notification audit trail.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/foldwatch/foldwatch/internal/models"
)

// Store wraps a SQLite database for all persistence operations.
type Store struct {
	db               *sql.DB
	maxNotifications int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/foldwatch/data.db.
func New(maxNotifications int, dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "foldwatch", "data.db")
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
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Store{db: db, maxNotifications: maxNotifications}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracked_questions (
			id                   TEXT PRIMARY KEY,
			url                  TEXT NOT NULL UNIQUE,
			tracked              INTEGER NOT NULL DEFAULT 1,
			last_notified_at     INTEGER,
			last_notified_window INTEGER,
			last_report          TEXT NOT NULL DEFAULT '',
			last_announced_at    INTEGER,
			created_at           INTEGER NOT NULL,
			updated_at           INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			question_id  TEXT NOT NULL REFERENCES tracked_questions(id) ON DELETE CASCADE,
			sent_at      INTEGER NOT NULL,
			window_hours INTEGER NOT NULL,
			report       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications(sent_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddQuestion registers a question URL for tracking. Adding an already
// registered URL returns the existing row unchanged.
func (s *Store) AddQuestion(url string) (*models.TrackedQuestion, error) {
	if existing, err := s.GetQuestionByURL(url); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	q := &models.TrackedQuestion{
		ID:        uuid.NewString(),
		URL:       url,
		Tracked:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT INTO tracked_questions (id, url, tracked, created_at, updated_at)
		VALUES (?,?,1,?,?)`,
		q.ID, q.URL, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert question: %w", err)
	}
	return q, nil
}

// GetQuestion returns a tracked question by ID.
func (s *Store) GetQuestion(id string) (*models.TrackedQuestion, error) {
	row := s.db.QueryRow(`SELECT `+questionCols+` FROM tracked_questions WHERE id = ?`, id)
	q, err := scanQuestion(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("question not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// GetQuestionByURL returns a tracked question by URL. sql.ErrNoRows passes
// through so callers can distinguish a missing row.
func (s *Store) GetQuestionByURL(url string) (*models.TrackedQuestion, error) {
	row := s.db.QueryRow(`SELECT `+questionCols+` FROM tracked_questions WHERE url = ?`, url)
	return scanQuestion(row.Scan)
}

// ListTracked returns all questions currently flagged for tracking, oldest
// first.
func (s *Store) ListTracked() ([]*models.TrackedQuestion, error) {
	rows, err := s.db.Query(`SELECT ` + questionCols + ` FROM tracked_questions WHERE tracked = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.TrackedQuestion
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if questions == nil {
		questions = []*models.TrackedQuestion{}
	}
	return questions, rows.Err()
}

// SetTracked flips the tracking flag for a question.
func (s *Store) SetTracked(id string, tracked bool) error {
	res, err := s.db.Exec(`UPDATE tracked_questions SET tracked = ?, updated_at = ? WHERE id = ?`,
		boolToInt(tracked), time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update tracking flag: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("question not found: %s", id)
	}
	return nil
}

// RecordNotification stamps the question's cooldown state and appends an
// audit row, trimming the audit trail to the configured cap. Both writes
// happen in one transaction so a crash cannot leave them disagreeing.
func (s *Store) RecordNotification(questionID string, windowHours int, report string, sentAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`
		UPDATE tracked_questions
		SET last_notified_at = ?, last_notified_window = ?, last_report = ?, updated_at = ?
		WHERE id = ?`,
		sentAt.UnixNano(), windowHours, report, sentAt.UnixNano(), questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("question not found: %s", questionID)
	}

	if _, err = tx.Exec(`
		INSERT INTO notifications (id, question_id, sent_at, window_hours, report)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), questionID, sentAt.UnixNano(), windowHours, report,
	); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	if s.maxNotifications > 0 {
		if _, err = tx.Exec(`
			DELETE FROM notifications WHERE id NOT IN (
				SELECT id FROM notifications ORDER BY sent_at DESC LIMIT ?
			)`, s.maxNotifications); err != nil {
			return fmt.Errorf("failed to enforce notification cap: %w", err)
		}
	}

	return tx.Commit()
}

// RecordTrackingAnnouncement stamps the time the question was announced as
// tracked.
func (s *Store) RecordTrackingAnnouncement(questionID string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE tracked_questions SET last_announced_at = ?, updated_at = ? WHERE id = ?`,
		at.UnixNano(), at.UnixNano(), questionID)
	if err != nil {
		return fmt.Errorf("failed to record announcement: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("question not found: %s", questionID)
	}
	return nil
}

// RecentNotifications returns up to limit audit rows, newest first.
func (s *Store) RecentNotifications(limit int) ([]models.NotificationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, question_id, sent_at, window_hours, report
		FROM notifications ORDER BY sent_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var records []models.NotificationRecord
	for rows.Next() {
		var r models.NotificationRecord
		var sentAtNano int64
		if err := rows.Scan(&r.ID, &r.QuestionID, &sentAtNano, &r.WindowHours, &r.Report); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		r.SentAt = time.Unix(0, sentAtNano)
		records = append(records, r)
	}

	return records, rows.Err()
}

const questionCols = `id, url, tracked, last_notified_at, last_notified_window,
	last_report, last_announced_at, created_at, updated_at`

func scanQuestion(scan func(...any) error) (*models.TrackedQuestion, error) {
	var q models.TrackedQuestion
	var tracked int
	var lastNotifiedNano, lastAnnouncedNano, lastWindow sql.NullInt64
	var createdAtNano, updatedAtNano int64

	err := scan(
		&q.ID, &q.URL, &tracked, &lastNotifiedNano, &lastWindow,
		&q.LastReport, &lastAnnouncedNano, &createdAtNano, &updatedAtNano,
	)
	if err != nil {
		return nil, err
	}

	q.Tracked = tracked != 0
	if lastNotifiedNano.Valid {
		ts := time.Unix(0, lastNotifiedNano.Int64)
		q.LastNotifiedAt = &ts
	}
	if lastWindow.Valid {
		w := int(lastWindow.Int64)
		q.LastNotifiedWindow = &w
	}
	if lastAnnouncedNano.Valid {
		ts := time.Unix(0, lastAnnouncedNano.Int64)
		q.LastAnnouncedAt = &ts
	}
	q.CreatedAt = time.Unix(0, createdAtNano)
	q.UpdatedAt = time.Unix(0, updatedAtNano)
	return &q, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
