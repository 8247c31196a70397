package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/port"
)

const recordVersion = 1

var ErrCorruptRecord = errors.New("corrupt record")

const (
	sessionKey = "session"
	themeKey   = "theme"
)

func cartKey(userID string) string {
	return "cart_" + userID
}

func ordersKey(userID string) string {
	return "orders_" + userID
}

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func saveRecord(ctx context.Context, storage port.BrowserStorage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	raw, err := json.Marshal(envelope{Version: recordVersion, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := storage.SetItem(ctx, key, raw); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// loadRecord decodes the record stored under key into v. Bare JSON arrays
// written before records were versioned are accepted as version 0.
func loadRecord(ctx context.Context, storage port.BrowserStorage, key string, v any) (bool, error) {
	raw, ok, err := storage.GetItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, v); err != nil {
			return true, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
		}
		return true, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
	}
	if env.Version != recordVersion {
		return true, fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptRecord, key, env.Version)
	}
	if len(env.Data) == 0 {
		return true, fmt.Errorf("%w: %s: missing data", ErrCorruptRecord, key)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
	}
	return true, nil
}
