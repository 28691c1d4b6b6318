package sqliterepo

import (
	"context"
	"fmt"
	"strconv"

	"economy-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetSettings loads the settings snapshot inside the transaction. Missing keys
// fall back to defaults so a fresh database behaves sanely.
func (t *Tx) GetSettings(ctx context.Context) (models.Settings, error) {
	return loadSettings(ctx, t.tx)
}

// GetSettings loads the settings snapshot outside a transaction.
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	return loadSettings(ctx, s.db)
}

// UpsertSetting writes one setting key.
func (t *Tx) UpsertSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	if _, err := t.tx.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}

	return nil
}

// InsertAdminEvent appends an immutable admin audit row.
func (t *Tx) InsertAdminEvent(ctx context.Context, event *models.AdminEvent) error {
	query := `
		INSERT INTO admin_events (id, admin_user_id, action, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := t.tx.ExecContext(ctx, query,
		event.ID,
		event.AdminUserID,
		event.Action,
		event.PayloadJSON,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert admin event: %w", err)
	}

	return nil
}

// ListAdminEvents returns the most recent admin audit rows.
func (s *Store) ListAdminEvents(ctx context.Context, limit int) ([]models.AdminEvent, error) {
	query := `
		SELECT id, admin_user_id, action, payload_json, created_at
		FROM admin_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	var events []models.AdminEvent
	if err := s.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list admin events: %w", err)
	}

	return events, nil
}

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func loadSettings(ctx context.Context, q sqlx.QueryerContext) (models.Settings, error) {
	settings := models.DefaultSettings()

	var rows []settingRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT key, value FROM settings`); err != nil {
		return settings, fmt.Errorf("failed to load settings: %w", err)
	}

	for _, row := range rows {
		switch row.Key {
		case models.SettingCreditMultiplier:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil {
				settings.CreditMultiplier = v
			}
		case models.SettingDropRateEventMultiplier:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil {
				settings.DropRateEventMultiplier = v
			}
		case models.SettingTradeLocked:
			if v, err := strconv.ParseBool(row.Value); err == nil {
				settings.TradeLocked = v
			}
		}
	}

	return settings, nil
}
