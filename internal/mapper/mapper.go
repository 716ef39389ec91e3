// Package mapper translates legacy source records into destination payloads.
//
// One Mapper per content kind, selected once from the Registry at startup.
// Mappers are pure apart from media resolution; everything mutable they
// need for a run travels in the RunContext.
package mapper

import (
	"context"
	"fmt"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Mapper converts one source record into a destination payload.
//
// A (nil, nil) return is an intentional skip: the record cannot or should
// not migrate (no image, no video link) and must leave no ledger trace.
type Mapper interface {
	Kind() models.Kind
	Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error)
}

// Registry holds the Mapper for every migratable kind.
type Registry struct {
	mappers map[models.Kind]Mapper
}

// NewRegistry returns a Registry with all six kind mappers registered.
func NewRegistry() *Registry {
	r := &Registry{mappers: make(map[models.Kind]Mapper)}
	for _, m := range []Mapper{
		&articleMapper{},
		&videoMapper{},
		&categoryMapper{},
		&leagueMapper{},
		&sponsorMapper{},
		&userMapper{},
	} {
		r.mappers[m.Kind()] = m
	}
	return r
}

// ForKind returns the Mapper for a kind.
func (r *Registry) ForKind(kind models.Kind) (Mapper, error) {
	m, ok := r.mappers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no mapper for %q", shared.ErrUnknownKind, kind)
	}
	return m, nil
}
