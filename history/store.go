// Package history persists chat transcripts in SQLite. It implements
// jobchat.HistoryStore so the chat service can carry conversations
// across calls.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/haowjy/meridian-chat-go/jobchat"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	creation_timestamp INTEGER NOT NULL,
	update_timestamp INTEGER NOT NULL,
	turns TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(update_timestamp DESC);
`

// Chat is a stored conversation.
type Chat struct {
	// ID of this chat.
	ID string
	// Time at which the chat was created, unix microseconds.
	CreationTimestamp int64
	// Time at which the chat was last updated, unix microseconds.
	UpdateTimestamp int64
	// The turns of this chat, oldest first.
	Turns []jobchat.Turn
}

// Store implements a SQLite-backed store for chats.
type Store struct {
	db *sql.DB
}

// New opens (and initializes if needed) the chat database at path.
// Use ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening chat database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing chat schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the turns of a chat, oldest first. An unknown chat id
// returns an empty slice, matching the jobchat.HistoryStore contract.
func (s *Store) Load(ctx context.Context, chatID string) ([]jobchat.Turn, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT turns FROM chats WHERE id = ?", chatID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat %q: %w", chatID, err)
	}

	var turns []jobchat.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("unmarshaling chat %q: %w", chatID, err)
	}
	return turns, nil
}

// Save replaces the stored turns for a chat, creating it if new.
func (s *Store) Save(ctx context.Context, chatID string, turns []jobchat.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshaling chat %q: %w", chatID, err)
	}

	now := time.Now().UnixMicro()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, creation_timestamp, update_timestamp, turns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			update_timestamp = excluded.update_timestamp,
			turns = excluded.turns`,
		chatID, now, now, string(raw))
	if err != nil {
		return fmt.Errorf("saving chat %q: %w", chatID, err)
	}
	return nil
}

// Get returns a chat with its metadata.
func (s *Store) Get(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, creation_timestamp, update_timestamp, turns FROM chats WHERE id = ?",
		chatID).Scan(&chat.ID, &chat.CreationTimestamp, &chat.UpdateTimestamp, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %q does not exist", chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat %q: %w", chatID, err)
	}

	if err := json.Unmarshal([]byte(raw), &chat.Turns); err != nil {
		return nil, fmt.Errorf("unmarshaling chat %q: %w", chatID, err)
	}
	return &chat, nil
}

// List returns up to pageSize chats, most recently updated first.
func (s *Store) List(ctx context.Context, pageSize int) ([]*Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creation_timestamp, update_timestamp, turns
		FROM chats ORDER BY update_timestamp DESC LIMIT ?`, pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		var chat Chat
		var raw string
		if err := rows.Scan(&chat.ID, &chat.CreationTimestamp, &chat.UpdateTimestamp, &raw); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &chat.Turns); err != nil {
			return nil, fmt.Errorf("unmarshaling chat %q: %w", chat.ID, err)
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

// Delete removes a chat. Deleting an unknown chat is not an error.
func (s *Store) Delete(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", chatID); err != nil {
		return fmt.Errorf("deleting chat %q: %w", chatID, err)
	}
	return nil
}
