package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const stateDataKey contextKey = "state_data"

// StateDataFromContext retrieves StateData from context if available
func StateDataFromContext(ctx context.Context) (*StateData, bool) {
	data, ok := ctx.Value(stateDataKey).(*StateData)
	return data, ok
}

// ContextWithStateData attaches StateData to context for request-scoped caching
func ContextWithStateData(ctx context.Context, data *StateData) context.Context {
	return context.WithValue(ctx, stateDataKey, data)
}

// Manager manages telegram chat states
type Manager struct {
	storage Storage
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
	}
}

func (m *Manager) setState(ctx context.Context, chatState *ChatState) error {
	chatState.UpdatedAt = time.Now()

	if err := m.storage.Set(ctx, chatState); err != nil {
		return fmt.Errorf("save chat state to storage: %w", err)
	}

	return nil
}

// DeleteState removes chat state from storage
func (m *Manager) DeleteState(ctx context.Context, chatID int64) error {
	if err := m.storage.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat state from storage: %w", err)
	}

	return nil
}

// GetStateData extracts typed state data.
// First checks context for cached data, then loads from storage if needed.
// A chat without stored state gets a fresh StateData rather than an error.
func (m *Manager) GetStateData(ctx context.Context, chatID int64) (*StateData, error) {
	// Check context cache first
	if data, ok := StateDataFromContext(ctx); ok {
		return data, nil
	}

	chatState, err := m.storage.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return &StateData{
				Version: StateDataCurrentVersion,
			}, nil
		}
		return nil, fmt.Errorf("get chat state from storage: %w", err)
	}

	if len(chatState.StateData) == 0 {
		return &StateData{
			Version: StateDataCurrentVersion,
		}, nil
	}

	var data StateData
	if err := json.Unmarshal(chatState.StateData, &data); err != nil {
		return nil, fmt.Errorf("unmarshal state data: %w", err)
	}

	// Auto-upgrade from old versions without version field
	if data.Version == 0 {
		data.Version = StateDataCurrentVersion
	}

	return &data, nil
}

// UpdateStateData updates state data, creating the chat state on first use
func (m *Manager) UpdateStateData(ctx context.Context, chatID int64, data *StateData) error {
	chatState, err := m.storage.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return fmt.Errorf("get chat state from storage: %w", err)
		}
		chatState = &ChatState{
			ChatID:    chatID,
			CreatedAt: time.Now(),
			StateData: json.RawMessage("{}"),
		}
	}

	// Ensure version is set to current version
	data.Version = StateDataCurrentVersion

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal state data: %w", err)
	}

	chatState.StateData = jsonData
	return m.setState(ctx, chatState)
}
