package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Speaker string

const (
	SpeakerUser Speaker = "USER"
	SpeakerBot  Speaker = "BOT"
)

type VoiceSpeed string

const (
	SpeedSlow   VoiceSpeed = "Slow"
	SpeedNormal VoiceSpeed = "Normal"
	SpeedFast   VoiceSpeed = "Fast"
)

// WordsPerMinute maps a speed setting to a synthesis rate.
func (v VoiceSpeed) WordsPerMinute() int {
	switch v {
	case SpeedSlow:
		return 100
	case SpeedFast:
		return 200
	default:
		return 150
	}
}

// ParseVoiceSpeed accepts any letter case.
func ParseVoiceSpeed(s string) (VoiceSpeed, error) {
	for _, v := range []VoiceSpeed{SpeedSlow, SpeedNormal, SpeedFast} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown voice speed %q", s)
}

type Conversation struct {
	ID        int64
	UserEmail string
	Timestamp time.Time
	Speaker   Speaker
	Message   string
}

// timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	voice_speed   TEXT NOT NULL DEFAULT 'Normal'
);

CREATE TABLE IF NOT EXISTS conversations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_email TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	speaker    TEXT NOT NULL CHECK (speaker IN ('USER', 'BOT')),
	message    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS conversations_user_time ON conversations (user_email, timestamp);
`

const (
	queryAppend = `INSERT INTO conversations (user_email, timestamp, speaker, message)
		VALUES (?, ?, ?, ?)`
	queryHistory = `SELECT id, user_email, timestamp, speaker, message
		FROM conversations WHERE user_email = ? ORDER BY timestamp, id`
	queryEnsureUser = `INSERT INTO users (name, email) VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING`
	queryVoiceSpeed    = `SELECT voice_speed FROM users WHERE email = ?`
	querySetVoiceSpeed = `UPDATE users SET voice_speed = ? WHERE email = ?`
)

var (
	migrateAttempts = 3
	migrateDelay    = time.Second
)

type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite database at path and makes sure the
// schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema, retrying a locked or busy database.
func (s *Store) Migrate(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= migrateAttempts; attempt++ {
		if _, err = s.db.ExecContext(ctx, schema); err == nil {
			return nil
		}

		log.Warn("Schema setup failed", "attempt", attempt, "err", err)
		if attempt == migrateAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(migrateDelay):
		}
	}

	return fmt.Errorf("create schema: %w", err)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendConversation(ctx context.Context, c Conversation) error {
	_, err := s.db.ExecContext(ctx, queryAppend,
		c.UserEmail, c.Timestamp.UTC().Format(timeLayout), string(c.Speaker), c.Message)
	if err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}

type conversationRow struct {
	ID        int64  `db:"id"`
	UserEmail string `db:"user_email"`
	Timestamp string `db:"timestamp"`
	Speaker   string `db:"speaker"`
	Message   string `db:"message"`
}

// Conversations returns the history of email in turn order.
func (s *Store) Conversations(ctx context.Context, email string) ([]Conversation, error) {
	var rows []conversationRow
	if err := s.db.SelectContext(ctx, &rows, queryHistory, email); err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}

	out := make([]Conversation, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(timeLayout, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("conversation %d: bad timestamp %q: %w", r.ID, r.Timestamp, err)
		}
		out = append(out, Conversation{
			ID:        r.ID,
			UserEmail: r.UserEmail,
			Timestamp: ts,
			Speaker:   Speaker(r.Speaker),
			Message:   r.Message,
		})
	}

	return out, nil
}

func (s *Store) EnsureUser(ctx context.Context, email, name string) error {
	if _, err := s.db.ExecContext(ctx, queryEnsureUser, name, email); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// VoiceSpeed returns the stored speed for email, Normal if there is none.
func (s *Store) VoiceSpeed(ctx context.Context, email string) (VoiceSpeed, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, queryVoiceSpeed, email)
	if errors.Is(err, sql.ErrNoRows) {
		return SpeedNormal, nil
	}
	if err != nil {
		return SpeedNormal, fmt.Errorf("select voice speed: %w", err)
	}

	v, err := ParseVoiceSpeed(raw)
	if err != nil {
		return SpeedNormal, nil
	}
	return v, nil
}

func (s *Store) SetVoiceSpeed(ctx context.Context, email string, v VoiceSpeed) error {
	res, err := s.db.ExecContext(ctx, querySetVoiceSpeed, string(v), email)
	if err != nil {
		return fmt.Errorf("update voice speed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update voice speed: no user %q", email)
	}
	return nil
}
