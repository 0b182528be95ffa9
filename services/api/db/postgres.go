package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry keeps device records as JSONB rows.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry connects a pgx pool and makes sure the devices table exists.
func NewPostgresRegistry(ctx context.Context, databaseURL string) (*PostgresRegistry, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	r := &PostgresRegistry{pool: pool}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the pool resources.
func (r *PostgresRegistry) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

const createDevicesSQL = `
    CREATE TABLE IF NOT EXISTS devices (
        device_id  text PRIMARY KEY,
        item       jsonb NOT NULL,
        created_at timestamptz NOT NULL DEFAULT now(),
        updated_at timestamptz NOT NULL DEFAULT now()
    )
`

// EnsureSchema creates the devices table when missing.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createDevicesSQL); err != nil {
		return fmt.Errorf("create devices table: %w", err)
	}
	return nil
}

const listDevicesSQL = `
    SELECT item
    FROM devices
    ORDER BY device_id
`

// ListDevices returns every record ordered by DeviceId.
func (r *PostgresRegistry) ListDevices(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, listDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		item, err := decodeStored(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const getDeviceSQL = `
    SELECT item
    FROM devices
    WHERE device_id = $1
`

// GetDevice returns one record or ErrNotFound.
func (r *PostgresRegistry) GetDevice(ctx context.Context, id string) (Item, error) {
	var raw []byte
	if err := r.pool.QueryRow(ctx, getDeviceSQL, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeStored(raw)
}

const upsertDeviceSQL = `
    INSERT INTO devices (device_id, item)
    VALUES ($1, $2::jsonb)
    ON CONFLICT (device_id) DO UPDATE
    SET item = EXCLUDED.item, updated_at = now()
`

// PutDevice creates or replaces a record.
func (r *PostgresRegistry) PutDevice(ctx context.Context, item Item) error {
	id := item.ID()
	if id == "" {
		return errors.New("device record has no DeviceId")
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal device %s: %w", id, err)
	}
	if _, err := r.pool.Exec(ctx, upsertDeviceSQL, id, string(raw)); err != nil {
		return fmt.Errorf("put device %s: %w", id, err)
	}
	return nil
}

// DeleteDevice removes a record. Deleting a missing record is not an error.
func (r *PostgresRegistry) DeleteDevice(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE device_id = $1`, id); err != nil {
		return fmt.Errorf("delete device %s: %w", id, err)
	}
	return nil
}

func decodeStored(raw []byte) (Item, error) {
	item, err := DecodeItem(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(item).(Item), nil
}
