// Package snapshot loads the run-scoped reference snapshot: the id maps
// that tie legacy taxonomy and contributors to their destination rows.
package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
)

// loadWorkers bounds concurrent List calls during a snapshot load.
const loadWorkers = 4

// Loader fetches and caches one ReferenceSnapshot per run. The cache is
// invalidated between the user migration and content migrations so newly
// created contributors become resolvable.
type Loader struct {
	dest   services.Destination
	logger *log.Logger

	mu     sync.Mutex
	cached *models.ReferenceSnapshot
}

// NewLoader validates the legacy id tables and returns a Loader.
func NewLoader(dest services.Destination, logger *log.Logger) (*Loader, error) {
	if err := validateTables(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Loader{dest: dest, logger: logger}, nil
}

// Get returns the cached snapshot, loading it on first use.
func (l *Loader) Get(ctx context.Context) (*models.ReferenceSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	snap, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	l.cached = snap
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Get reloads it.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context) (*models.ReferenceSnapshot, error) {
	snap := models.NewReferenceSnapshot()

	type fetchResult struct {
		resource string
		items    []services.ReferenceItem
		err      error
	}

	resources := []string{"websites", "categories", "leagues", "roles", "users"}
	results := make(chan fetchResult, len(resources))
	sem := make(chan struct{}, loadWorkers)

	var wg sync.WaitGroup
	for _, resource := range resources {
		wg.Add(1)
		go func(resource string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := l.dest.List(ctx, resource, []string{"id", "name"})
			results <- fetchResult{resource: resource, items: items, err: err}
		}(resource)
	}
	wg.Wait()
	close(results)

	for result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", shared.ErrSnapshotIncomplete, result.resource, result.err)
		}
		l.apply(snap, result.resource, result.items)
	}

	if err := validate(snap); err != nil {
		return nil, err
	}

	l.logger.Info("reference snapshot loaded",
		"tablesVersion", TablesVersion,
		"websites", len(snap.Websites),
		"categories", len(snap.Categories),
		"leagues", len(snap.Leagues),
		"roles", len(snap.Roles),
		"users", len(snap.Users),
	)
	return snap, nil
}

// apply folds one resource listing into the snapshot. Items without an id
// or name are skipped with a warning; taxonomy rows whose name matches no
// legacy table entry are ignored.
func (l *Loader) apply(snap *models.ReferenceSnapshot, resource string, items []services.ReferenceItem) {
	for _, item := range items {
		if item.ID == "" || item.Name == "" {
			l.logger.Warn("skipping reference item missing id or name", "resource", resource, "id", item.ID, "name", item.Name)
			continue
		}

		switch resource {
		case "websites":
			if id, ok := legacyID(websiteLegacyIDs, item.Name); ok {
				snap.Websites[id] = item.ID
			}
		case "categories":
			if id, ok := legacyID(categoryLegacyIDs, item.Name); ok {
				snap.Categories[id] = item.ID
			}
		case "leagues":
			if id, ok := legacyID(leagueLegacyIDs, item.Name); ok {
				snap.Leagues[id] = item.ID
			}
		case "roles":
			snap.Roles[item.Name] = item.ID
		case "users":
			snap.Users[item.Name] = item.ID
		}
	}
}

// validate enforces the startup invariant: content migrations cannot run
// against a destination missing its website, category or league rows.
func validate(snap *models.ReferenceSnapshot) error {
	if len(snap.Websites) == 0 {
		return fmt.Errorf("%w: no destination websites matched the legacy table", shared.ErrSnapshotIncomplete)
	}
	if len(snap.Categories) == 0 {
		return fmt.Errorf("%w: no destination categories matched the legacy table", shared.ErrSnapshotIncomplete)
	}
	if len(snap.Leagues) == 0 {
		return fmt.Errorf("%w: no destination leagues matched the legacy table", shared.ErrSnapshotIncomplete)
	}
	return nil
}
