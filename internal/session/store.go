// Package session persists editing sessions between requests: the
// current source and the undo/redo stacks, expiring after a TTL.
package session

import (
	"context"
	"errors"
	"time"

	"htmleditor/internal/history"
)

var ErrNotFound = errors.New("session not found or expired")

// Record is the stored state of one session.
type Record struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	History   history.State `json:"history"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store saves and loads session records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
