// Package db holds the device registry: free-form device records keyed by
// DeviceId, stored in DynamoDB or PostgreSQL.
package db

import (
	"context"
	"errors"
)

// KeyAttribute is the primary key of every device record.
const KeyAttribute = "DeviceId"

// ErrNotFound is returned when a device record does not exist.
var ErrNotFound = errors.New("device not found")

// Item is a device record. Values are JSON-shaped; numbers are int64 or
// float64 on read.
type Item map[string]any

// ID returns the record's DeviceId, or "" when it is missing or not a string.
func (i Item) ID() string {
	id, _ := i[KeyAttribute].(string)
	return id
}

// Registry stores device records.
type Registry interface {
	ListDevices(ctx context.Context) ([]Item, error)
	GetDevice(ctx context.Context, id string) (Item, error)
	PutDevice(ctx context.Context, item Item) error
	DeleteDevice(ctx context.Context, id string) error
	Close()
}
