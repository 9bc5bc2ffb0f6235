package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"voicegraph/backend/internal/state"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"

	_ "modernc.org/sqlite"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS conversation_items (
	item_id        TEXT PRIMARY KEY,
	input_item_id  TEXT,
	role           TEXT NOT NULL,
	type           TEXT,
	content        TEXT NOT NULL,
	user           TEXT,
	session        TEXT,
	topic          TEXT,
	classification TEXT,
	embedding      BLOB,
	created_at     INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_items_session ON conversation_items(session)`,
}

// Record is a conversation item as persisted, with its label and embedding
type Record struct {
	Item           state.ConversationItem
	Classification string
	Embedding      []float32
}

// Match is a recalled item and its cosine similarity to the query
type Match struct {
	Record
	Similarity float64
}

// Store persists conversation items in SQLite and recalls them by embedding
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewHistoryFailed("open", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, apperrors.NewHistoryFailed("open", fmt.Errorf("setting WAL mode: %w", err))
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, apperrors.NewHistoryFailed("open", fmt.Errorf("setting busy timeout: %w", err))
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, apperrors.NewHistoryFailed("open", fmt.Errorf("creating schema: %w", err))
		}
	}

	return &Store{db: db, logger: logger.Named("history")}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a record keyed by its item id
func (s *Store) Save(ctx context.Context, rec Record) error {
	item := rec.Item
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conversation_items
			(item_id, input_item_id, role, type, content, user, session, topic, classification, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ItemID, nullString(item.InputItemID), string(item.Role), nullString(item.Type), item.Content,
		nullString(item.User), nullString(item.Session), nullString(item.Topic),
		nullString(rec.Classification), encodeEmbedding(rec.Embedding), time.Now().UnixMilli(),
	)
	if err != nil {
		return apperrors.NewHistoryFailed("save", err)
	}

	s.logger.Debug("Conversation item saved",
		zap.String("item_id", item.ItemID),
		zap.String("role", string(item.Role)),
		zap.String("classification", rec.Classification),
	)
	return nil
}

// Classification returns the stored label of an item. ok is false when the
// item is unknown or was never labelled.
func (s *Store) Classification(ctx context.Context, itemID string) (label string, ok bool, err error) {
	var stored sql.NullString
	err = s.db.QueryRowContext(ctx, "SELECT classification FROM conversation_items WHERE item_id = ?", itemID).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewHistoryFailed("lookup", err)
	}
	return stored.String, stored.Valid && stored.String != "", nil
}

// Recall returns up to count stored items whose embedding has cosine
// similarity of at least threshold to query, most similar first.
func (s *Store) Recall(ctx context.Context, query []float32, count int, threshold float64) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, input_item_id, role, type, content, user, session, topic, classification, embedding
		FROM conversation_items
		WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, apperrors.NewHistoryFailed("recall", err)
	}
	defer rows.Close()

	var candidates []Match
	for rows.Next() {
		var m Match
		var role string
		var inputItemID, itemType, user, session, topic, classification sql.NullString
		var data []byte
		if err := rows.Scan(&m.Item.ItemID, &inputItemID, &role, &itemType, &m.Item.Content,
			&user, &session, &topic, &classification, &data); err != nil {
			return nil, apperrors.NewHistoryFailed("recall", err)
		}
		m.Item.InputItemID = inputItemID.String
		m.Item.Role = state.Role(role)
		m.Item.Type = itemType.String
		m.Item.User = user.String
		m.Item.Session = session.String
		m.Item.Topic = topic.String
		m.Classification = classification.String
		m.Embedding = decodeEmbedding(data)
		m.Similarity = CosineSimilarity(query, m.Embedding)
		candidates = append(candidates, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewHistoryFailed("recall", err)
	}

	matches := topMatches(candidates, count, threshold)
	s.logger.Debug("History recalled",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
