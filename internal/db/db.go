// Package db
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/amirphl/vega-maker/internal/journal"
)

// Storage is the interface for all persistent storage.
type Storage interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	DeleteEvents(ctx context.Context, eventType string, before time.Time) error
	journal.Journaler
}
