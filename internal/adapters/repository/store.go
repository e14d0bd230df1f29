// Package repository defines the history store interface and its backends.
package repository

import (
	"context"

	"github.com/burns-20/bwrank/internal/domain/model"
)

// Backend names used in logs and metrics.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Store provides read/append access to the observation history.
type Store interface {
	// LoadAll returns every stored observation in load order, with race and
	// server labels translated for display.
	// Returns ErrHistoryNotFound when the backing source does not exist yet.
	LoadAll(ctx context.Context) ([]model.Observation, error)

	// Append stores obs. Rows already written are never rewritten, so a
	// failing call leaves earlier rows intact.
	Append(ctx context.Context, obs ...model.Observation) error
}
