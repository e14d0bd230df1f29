package testhistory

import (
	"errors"
	"fmt"

	"github.com/burns-20/bwrank/internal/domain/model"
)

// ErrInconsistent is returned by Verify for a history breaking a snapshot
// invariant.
var ErrInconsistent = errors.New("inconsistent history")

type snapshotKey struct{ date, server string }

// Verify checks that names and positions are unique within every
// (date, server) snapshot and that positions are positive.
func Verify(obs []model.Observation) error {
	names := make(map[snapshotKey]map[string]struct{})
	positions := make(map[snapshotKey]map[int]struct{})
	for i, o := range obs {
		k := snapshotKey{o.Date, o.Server}
		if names[k] == nil {
			names[k] = make(map[string]struct{})
			positions[k] = make(map[int]struct{})
		}
		if o.Position < 1 {
			return fmt.Errorf("%w: row %d has position %d", ErrInconsistent, i, o.Position)
		}
		if _, dup := names[k][o.Name]; dup {
			return fmt.Errorf("%w: %s appears twice on %s %s", ErrInconsistent, o.Name, o.Server, o.Date)
		}
		if _, dup := positions[k][o.Position]; dup {
			return fmt.Errorf("%w: position %d taken twice on %s %s", ErrInconsistent, o.Position, o.Server, o.Date)
		}
		names[k][o.Name] = struct{}{}
		positions[k][o.Position] = struct{}{}
	}
	return nil
}
