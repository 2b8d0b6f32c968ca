package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrStateNotFound is returned when a chat has no stored state yet
var ErrStateNotFound = errors.New("chat state not found")

// ChatState represents telegram chat -> conversation state mapping
type ChatState struct {
	ChatID    int64           `json:"chat_id"`
	StateData json.RawMessage `json:"state_data,omitempty"` // Telegram-specific UI state
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateData contains telegram-specific UI state (stored in StateData JSONB)
// Version 1: Initial implementation
type StateData struct {
	// Version for compatibility tracking (current version: 1)
	Version int `json:"version,omitempty"`

	// Question text awaiting a type selection
	PendingQuestion string `json:"pending_question,omitempty"`

	// Last message ID (for editing the type keyboard)
	LastMessageID int `json:"last_message_id,omitempty"`

	// Processing state (for idempotency)
	IsProcessing      bool      `json:"is_processing,omitempty"`
	ProcessingStarted time.Time `json:"processing_started,omitempty"`
}

const (
	// StateDataCurrentVersion is the current version of StateData
	StateDataCurrentVersion = 1
)

// Storage defines the interface for telegram chat state persistence
type Storage interface {
	// Get retrieves chat state by chat ID
	Get(ctx context.Context, chatID int64) (*ChatState, error)

	// Set saves chat state
	Set(ctx context.Context, chatState *ChatState) error

	// Delete removes chat state
	Delete(ctx context.Context, chatID int64) error
}
