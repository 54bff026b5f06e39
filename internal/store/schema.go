package store

import "time"

// FeedbackEntry is one timestamped user correction for an agent profile.
// Entries are append-only and never mutated; retrieval order is append
// order, oldest first.
type FeedbackEntry struct {
	ID        int64     `json:"id"`
	Profile   string    `json:"profile"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SkillRecord is a persisted synthesized skill. The script body is
// opaque to the core; it is produced by the model from a recorded
// session and always registered red.
type SkillRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Script      string    `json:"script"`
	RecordingID string    `json:"recording_id,omitempty"`
	Risk        string    `json:"risk"`
	CreatedAt   time.Time `json:"created_at"`
}

// ApprovalRecord is an audit row for one confirmation prompt.
type ApprovalRecord struct {
	ID          int64      `json:"id"`
	ApprovalID  string     `json:"approval_id"`
	Profile     string     `json:"profile,omitempty"`
	Tool        string     `json:"tool"`
	Arguments   string     `json:"arguments,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalDenied   = "denied"
	ApprovalTimeout  = "timeout"
)

// RecordingRecord is a finalized session recording.
type RecordingRecord struct {
	ID        int64     `json:"id"`
	RecID     string    `json:"rec_id"`
	Status    string    `json:"status"`
	Steps     string    `json:"steps"` // JSON array of {command, output}
	CreatedAt time.Time `json:"created_at"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS feedback_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	profile TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_feedback_profile ON feedback_entries(profile, id);

CREATE TABLE IF NOT EXISTS skills (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	description TEXT DEFAULT '',
	script TEXT NOT NULL,
	recording_id TEXT DEFAULT '',
	risk TEXT NOT NULL DEFAULT 'red',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS approval_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	approval_id TEXT UNIQUE NOT NULL,
	profile TEXT DEFAULT '',
	tool TEXT NOT NULL,
	arguments TEXT DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	responded_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_approval_status ON approval_requests(status);

CREATE TABLE IF NOT EXISTS recordings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rec_id TEXT UNIQUE NOT NULL,
	status TEXT NOT NULL,
	steps TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
