package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/port"
)

const createBrowserStorageTable = `
CREATE TABLE IF NOT EXISTS browser_storage (
	browser_id VARCHAR(64)  NOT NULL,
	item_key   VARCHAR(191) NOT NULL,
	item_value MEDIUMBLOB   NOT NULL,
	updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (browser_id, item_key)
)`

// MySQLAdapter keeps browser namespaces as rows of a single key/value table.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the storage table if it does not exist.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createBrowserStorageTable); err != nil {
		return fmt.Errorf("create browser_storage: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Storage(browserID string) port.BrowserStorage {
	return &mysqlStorage{db: m.db, browserID: browserID}
}

type mysqlStorage struct {
	db        *sql.DB
	browserID string
}

func (s *mysqlStorage) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT item_value FROM browser_storage
		WHERE browser_id = ? AND item_key = ?`, s.browserID, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query item: %w", err)
	}
	return value, true, nil
}

func (s *mysqlStorage) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO browser_storage (browser_id, item_key, item_value)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE item_value = VALUES(item_value)`,
		s.browserID, key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (s *mysqlStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM browser_storage WHERE browser_id = ? AND item_key = ?`,
		s.browserID, key,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
