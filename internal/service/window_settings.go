package service

import (
	"context"
	"encoding/json"
	"fmt"

	"passbook/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main Wails window size between sessions.
// Stored as one JSON value in the SQLite kv_store, next to the credentials.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	store domain.KVStore
}

// NewWindowSettingsService creates a WindowSettingsService.
func NewWindowSettingsService(store domain.KVStore) *WindowSettingsService {
	return &WindowSettingsService{store: store}
}

const (
	settingWindowSize   = "settings:window_size"
	DefaultWindowWidth  = 480
	DefaultWindowHeight = 760
	MinWindowWidth      = 360
	MinWindowHeight     = 560
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *WindowSettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	size := WindowSize{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	if s.store == nil {
		return size
	}

	raw, ok, err := s.store.Get(ctx, settingWindowSize)
	if err != nil || !ok {
		return size
	}
	var saved WindowSize
	if json.Unmarshal([]byte(raw), &saved) != nil {
		return size
	}

	if saved.Width >= MinWindowWidth {
		size.Width = saved.Width
	}
	if saved.Height >= MinWindowHeight {
		size.Height = saved.Height
	}
	return size
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if s.store == nil {
		return fmt.Errorf("window settings: no store")
	}
	data, err := json.Marshal(WindowSize{Width: width, Height: height})
	if err != nil {
		return err
	}
	return s.store.Set(ctx, settingWindowSize, string(data))
}
