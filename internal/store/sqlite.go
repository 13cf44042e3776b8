package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes appends to avoid SQLITE_BUSY under bursts
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateConversation registers a new transcript header.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	query := `INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		conv.ID, conv.Title, conv.CreatedAt.Unix(), conv.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID, or nil when absent.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var conv domain.Conversation
	var createdAt, updatedAt int64
	err := row.Scan(&conv.ID, &conv.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	conv.CreatedAt = time.Unix(createdAt, 0)
	conv.UpdatedAt = time.Unix(updatedAt, 0)
	return &conv, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	query := `SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close conversation rows", "error", closeErr)
		}
	}()

	var convs []*domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var createdAt, updatedAt int64
		if err := rows.Scan(&conv.ID, &conv.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		conv.CreatedAt = time.Unix(createdAt, 0)
		conv.UpdatedAt = time.Unix(updatedAt, 0)
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	// Explicit child delete; foreign_keys pragma is off by default.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// AppendMessage adds a message to a conversation and bumps its updated_at
// timestamp. Retries with backoff on SQLite concurrency errors.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, msg *domain.StoredMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var lastErr error
	for i := 0; i < writeRetries; i++ {
		lastErr = s.appendMessageOnce(ctx, conversationID, msg)
		if lastErr == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(lastErr) || i == writeRetries-1 {
			break
		}
		delay := writeBaseDelay * time.Duration(1<<i)
		slog.Debug("message append hit SQLITE_BUSY, retrying",
			"conversation_id", conversationID,
			"attempt", i+1,
			"delay", delay,
		)
		time.Sleep(delay)
	}
	return fmt.Errorf("append message to %s: %w", conversationID, lastErr)
}

func (s *SQLiteStore) appendMessageOnce(ctx context.Context, conversationID string, msg *domain.StoredMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Content, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		createdAt.Unix(), conversationID,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conversation %s does not exist", conversationID)
	}

	return tx.Commit()
}

// GetMessages returns a conversation's messages in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, conversationID string) ([]*domain.StoredMessage, error) {
	query := `SELECT role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var msgs []*domain.StoredMessage
	for rows.Next() {
		var msg domain.StoredMessage
		var createdAt int64
		if err := rows.Scan(&msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return msgs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
