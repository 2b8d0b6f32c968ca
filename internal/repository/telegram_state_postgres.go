package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edubrain/answer-backend/internal/telegram/state"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatStateRepository handles telegram chat state persistence
type ChatStateRepository struct {
	db *pgxpool.Pool
}

// NewChatStateRepository creates a new telegram chat state repository
func NewChatStateRepository(db *pgxpool.Pool) *ChatStateRepository {
	return &ChatStateRepository{
		db: db,
	}
}

// Get retrieves chat state by chat ID
func (r *ChatStateRepository) Get(ctx context.Context, chatID int64) (*state.ChatState, error) {
	const q = `
		select chat_id, state_data, created_at, updated_at
		from telegram_chat_states
		where chat_id = $1`

	var (
		stateData []byte
		createdAt pgtype.Timestamp
		updatedAt pgtype.Timestamp
	)

	chatState := &state.ChatState{}
	err := r.db.QueryRow(ctx, q, chatID).Scan(&chatState.ChatID, &stateData, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", state.ErrStateNotFound, chatID)
		}
		return nil, fmt.Errorf("query chat state: %w", err)
	}

	chatState.CreatedAt = createdAt.Time
	chatState.UpdatedAt = updatedAt.Time
	if len(stateData) > 0 {
		chatState.StateData = json.RawMessage(stateData)
	} else {
		chatState.StateData = json.RawMessage("{}")
	}

	return chatState, nil
}

// Set saves chat state
func (r *ChatStateRepository) Set(ctx context.Context, chatState *state.ChatState) error {
	const q = `
		insert into telegram_chat_states (chat_id, state_data, created_at, updated_at)
		values ($1, $2, $3, $4)
		on conflict (chat_id)
		do update set state_data = excluded.state_data, updated_at = excluded.updated_at`

	stateData := []byte(chatState.StateData)
	if len(stateData) == 0 {
		stateData = []byte("{}")
	}

	_, err := r.db.Exec(ctx, q,
		chatState.ChatID,
		stateData,
		pgtype.Timestamp{Time: chatState.CreatedAt, Valid: true},
		pgtype.Timestamp{Time: chatState.UpdatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("upsert chat state: %w", err)
	}

	return nil
}

// Delete removes chat state
func (r *ChatStateRepository) Delete(ctx context.Context, chatID int64) error {
	const q = `delete from telegram_chat_states where chat_id = $1`

	_, err := r.db.Exec(ctx, q, chatID)
	if err != nil {
		return fmt.Errorf("delete chat state: %w", err)
	}

	return nil
}
