// Package store provides the SQLite persistence layer: feedback entries,
// synthesized skills, approval audit rows, and session recordings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database. Safe for concurrent use; database/sql
// pools connections and WAL mode allows concurrent readers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. The parent directory is created if missing.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.migrate()
	return s, nil
}

// migrate applies best-effort column additions for databases created by
// older versions. Errors are ignored; the column already existing is the
// common case.
func (s *Store) migrate() {
	alters := []string{
		`ALTER TABLE skills ADD COLUMN recording_id TEXT DEFAULT ''`,
		`ALTER TABLE approval_requests ADD COLUMN profile TEXT DEFAULT ''`,
	}
	for _, stmt := range alters {
		if _, err := s.db.Exec(stmt); err == nil {
			s.logger.Debug("applied migration", "stmt", stmt)
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// --- Feedback ---

// AppendFeedback appends one feedback entry for a profile. Entries are
// never updated or deleted afterward.
func (s *Store) AppendFeedback(ctx context.Context, profile, content string) (*FeedbackEntry, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_entries (profile, content, created_at) VALUES (?, ?, ?)`,
		profile, content, now)
	if err != nil {
		return nil, fmt.Errorf("append feedback: %w", err)
	}
	id, _ := res.LastInsertId()
	return &FeedbackEntry{ID: id, Profile: profile, Content: content, CreatedAt: now}, nil
}

// ListFeedback returns all feedback for a profile in append order,
// oldest first. limit <= 0 means no limit.
func (s *Store) ListFeedback(ctx context.Context, profile string, limit int) ([]FeedbackEntry, error) {
	query := `SELECT id, profile, content, created_at FROM feedback_entries WHERE profile = ? ORDER BY id ASC`
	args := []any{profile}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		if err := rows.Scan(&e.ID, &e.Profile, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountFeedback returns the number of entries stored for a profile.
func (s *Store) CountFeedback(ctx context.Context, profile string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_entries WHERE profile = ?`, profile).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// --- Skills ---

// InsertSkill persists a synthesized skill. Fails if the name is taken.
func (s *Store) InsertSkill(ctx context.Context, skill *SkillRecord) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO skills (name, description, script, recording_id, risk, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		skill.Name, skill.Description, skill.Script, skill.RecordingID, skill.Risk, now)
	if err != nil {
		return fmt.Errorf("insert skill %q: %w", skill.Name, err)
	}
	skill.ID, _ = res.LastInsertId()
	skill.CreatedAt = now
	return nil
}

// ListSkills returns all persisted skills, oldest first.
func (s *Store) ListSkills(ctx context.Context) ([]SkillRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, script, recording_id, risk, created_at FROM skills ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []SkillRecord
	for rows.Next() {
		var sk SkillRecord
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Script, &sk.RecordingID, &sk.Risk, &sk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// GetSkill returns a skill by name, or sql.ErrNoRows.
func (s *Store) GetSkill(ctx context.Context, name string) (*SkillRecord, error) {
	var sk SkillRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, script, recording_id, risk, created_at FROM skills WHERE name = ?`,
		name).Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Script, &sk.RecordingID, &sk.Risk, &sk.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sk, nil
}

// --- Approvals ---

// RecordApproval inserts a pending approval audit row.
func (s *Store) RecordApproval(ctx context.Context, approvalID, profile, tool string, args map[string]any) error {
	argsJSON, _ := json.Marshal(args)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approval_requests (approval_id, profile, tool, arguments, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		approvalID, profile, tool, string(argsJSON), ApprovalPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	return nil
}

// ResolveApproval updates an approval row's final status.
func (s *Store) ResolveApproval(ctx context.Context, approvalID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE approval_requests SET status = ?, responded_at = ? WHERE approval_id = ?`,
		status, time.Now().UTC(), approvalID)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	return nil
}

// ListApprovals returns the most recent approval rows, newest first.
func (s *Store) ListApprovals(ctx context.Context, limit int) ([]ApprovalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, approval_id, profile, tool, arguments, status, created_at, responded_at
		 FROM approval_requests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var records []ApprovalRecord
	for rows.Next() {
		var r ApprovalRecord
		if err := rows.Scan(&r.ID, &r.ApprovalID, &r.Profile, &r.Tool, &r.Arguments, &r.Status, &r.CreatedAt, &r.RespondedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// --- Recordings ---

// SaveRecording persists a finalized recording with its steps as JSON.
func (s *Store) SaveRecording(ctx context.Context, recID, status, stepsJSON string) error {
	if stepsJSON == "" {
		stepsJSON = "[]"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recordings (rec_id, status, steps, created_at) VALUES (?, ?, ?, ?)`,
		recID, status, stepsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

// ListRecordings returns the most recent recordings, newest first.
func (s *Store) ListRecordings(ctx context.Context, limit int) ([]RecordingRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rec_id, status, steps, created_at FROM recordings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var records []RecordingRecord
	for rows.Next() {
		var r RecordingRecord
		if err := rows.Scan(&r.ID, &r.RecID, &r.Status, &r.Steps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
