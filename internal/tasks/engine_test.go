package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sportsdesk/cmx/internal/ledger"
	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
	"github.com/sportsdesk/cmx/internal/source"
)

type mockStore struct {
	mu       sync.Mutex
	records  []models.SourceRecord
	failAt   map[int]error
	countErr error
	offsets  []int
}

func (m *mockStore) Count(ctx context.Context, kind models.Kind) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.records), nil
}

func (m *mockStore) ReadPage(ctx context.Context, kind models.Kind, variant source.Variant, offset, limit int) ([]models.SourceRecord, error) {
	m.mu.Lock()
	m.offsets = append(m.offsets, offset)
	m.mu.Unlock()
	if err, ok := m.failAt[offset]; ok {
		return nil, err
	}
	if !variant.Paged() {
		return m.records, nil
	}
	if offset >= len(m.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.records) {
		end = len(m.records)
	}
	return m.records[offset:end], nil
}

type mockDest struct {
	mu       sync.Mutex
	posts    []models.MappedRecord
	postErr  error
	existing map[string]bool
}

func (m *mockDest) Post(ctx context.Context, kind models.Kind, record models.MappedRecord) (*services.PostResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return nil, m.postErr
	}
	m.posts = append(m.posts, record)
	return &services.PostResult{DestinationID: fmt.Sprintf("dest-%d", len(m.posts))}, nil
}

func (m *mockDest) Exists(ctx context.Context, kind models.Kind, legacyID string) (bool, error) {
	return m.existing[legacyID], nil
}

func (m *mockDest) List(ctx context.Context, resource string, columns []string) ([]services.ReferenceItem, error) {
	return nil, shared.ErrNotImplemented
}

func (m *mockDest) UploadMedia(ctx context.Context, upload services.MediaUpload) (string, error) {
	return "media-1", nil
}

func (m *mockDest) postCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

type mockSnapshots struct {
	snap        *models.ReferenceSnapshot
	invalidated int
}

func (m *mockSnapshots) Get(ctx context.Context) (*models.ReferenceSnapshot, error) {
	return m.snap, nil
}

func (m *mockSnapshots) Invalidate() { m.invalidated++ }

type mockMedia struct{}

func (m *mockMedia) Resolve(ctx context.Context, filename, caption, addedByID, videoURL string) (string, error) {
	return "media-1", nil
}

func (m *mockMedia) ResolveLogo(ctx context.Context, filename, caption, addedByID string) (string, error) {
	return "logo-1", nil
}

func testSnapshot() *models.ReferenceSnapshot {
	snap := models.NewReferenceSnapshot()
	snap.Websites[7] = "w-7"
	snap.Categories[2] = "c-2"
	snap.Leagues[9] = "l-9"
	snap.Users["One Sports"] = "u-house"
	return snap
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return ledger.New(db, shared.NewLogger(nil))
}

func newTestEngine(t *testing.T, store *mockStore, dest *mockDest) (*Engine, *ledger.Ledger, *mockSnapshots) {
	t.Helper()

	outcomes := newTestLedger(t)
	snapshots := &mockSnapshots{snap: testSnapshot()}
	engine := NewEngine(EngineOpts{
		Store:          store,
		Destination:    dest,
		Ledger:         outcomes,
		Snapshots:      snapshots,
		Media:          &mockMedia{},
		FallbackAuthor: "One Sports",
		EmailDomain:    "onecms.com",
		Logger:         shared.NewLogger(nil),
	})
	engine.planDelay = 0
	return engine, outcomes, snapshots
}

func sponsorRecords(n int) []models.SourceRecord {
	records := make([]models.SourceRecord, n)
	for i := range records {
		records[i] = models.SourceRecord{
			"id":   int64(i + 1),
			"name": fmt.Sprintf("Sponsor %d", i+1),
		}
	}
	return records
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("MigratesAllRecords", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(25)}
		dest := &mockDest{}
		engine, outcomes, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 10}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Success != 25 || summary.Errors != 0 {
			t.Errorf("expected 25 successes, got %+v", summary)
		}
		if summary.TotalAvailable != 25 || summary.Batches != 3 {
			t.Errorf("expected 25 available over 3 batches, got %d/%d", summary.TotalAvailable, summary.Batches)
		}

		count, err := outcomes.SuccessCount(ctx, models.KindSponsor)
		if err != nil {
			t.Fatalf("SuccessCount failed: %v", err)
		}
		if count != 25 {
			t.Errorf("expected 25 ledger entries, got %d", count)
		}
	})

	t.Run("SecondRunPostsNothing", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(8)}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		opts := Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 10}
		if _, err := engine.Run(ctx, opts, nil); err != nil {
			t.Fatalf("first Run failed: %v", err)
		}
		firstPosts := dest.postCount()

		summary, err := engine.Run(ctx, opts, nil)
		if err != nil {
			t.Fatalf("second Run failed: %v", err)
		}

		if dest.postCount() != firstPosts {
			t.Errorf("second run must post nothing, posts went %d -> %d", firstPosts, dest.postCount())
		}
		if summary.Existing != 8 || summary.Success != 0 {
			t.Errorf("expected 8 existing on resume, got %+v", summary)
		}
	})

	t.Run("DuplicatePostCountsAsExisting", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(3)}
		dest := &mockDest{postErr: fmt.Errorf("%w: sponsor already exists", shared.ErrDuplicate)}
		engine, outcomes, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantTest}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Existing != 3 || summary.Errors != 0 {
			t.Errorf("duplicates belong in the existing counter, got %+v", summary)
		}

		failures, err := outcomes.Failures(ctx, models.KindSponsor)
		if err != nil {
			t.Fatalf("Failures failed: %v", err)
		}
		if len(failures) != 0 {
			t.Errorf("duplicates must not be recorded as failures, got %d", len(failures))
		}
	})

	t.Run("PostErrorRecordsFailure", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(2)}
		dest := &mockDest{postErr: errors.New("502 bad gateway")}
		engine, outcomes, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantTest}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Errors != 2 {
			t.Errorf("expected 2 errors, got %+v", summary)
		}
		if len(summary.Failed) != 2 || summary.Failed[0].Stage != "post" {
			t.Errorf("expected post-stage failure details, got %+v", summary.Failed)
		}

		failures, err := outcomes.Failures(ctx, models.KindSponsor)
		if err != nil {
			t.Fatalf("Failures failed: %v", err)
		}
		if len(failures) != 2 {
			t.Errorf("expected 2 ledger failures, got %d", len(failures))
		}
	})

	t.Run("MapperSkipLeavesNoLedgerEntry", func(t *testing.T) {
		// Articles without an image are skipped by the mapper.
		store := &mockStore{records: []models.SourceRecord{
			{"id": int64(1), "title": "No art"},
		}}
		dest := &mockDest{}
		engine, outcomes, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindArticle, Variant: source.VariantTest}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Skipped != 1 || summary.Processed() != 1 {
			t.Errorf("expected 1 skip, got %+v", summary)
		}

		count, _ := outcomes.SuccessCount(ctx, models.KindArticle)
		failures, _ := outcomes.Failures(ctx, models.KindArticle)
		if count != 0 || len(failures) != 0 {
			t.Errorf("skips must leave no ledger trace, got %d successes, %d failures", count, len(failures))
		}
	})

	t.Run("DestinationExistingArticleCountsAsExisting", func(t *testing.T) {
		store := &mockStore{records: []models.SourceRecord{
			{"id": int64(7), "title": "Seen before", "image": "a.jpg", "body": "<p>x</p>"},
		}}
		dest := &mockDest{existing: map[string]bool{"7": true}}
		engine, _, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindArticle, Variant: source.VariantTest}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Existing != 1 || dest.postCount() != 0 {
			t.Errorf("expected existence check to preempt the post, got %+v with %d posts", summary, dest.postCount())
		}
	})

	t.Run("FailedBatchDoesNotStallOffsets", func(t *testing.T) {
		store := &mockStore{
			records: sponsorRecords(30),
			failAt:  map[int]error{10: errors.New("connection reset")},
		}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 10, BatchWorkers: 1}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Success != 20 {
			t.Errorf("batches after the failed one must still run, got %+v", summary)
		}
		if summary.Errors != 10 {
			t.Errorf("a lost page fails its whole batch, got %d errors", summary.Errors)
		}
		if len(summary.Failed) != 1 || summary.Failed[0].Stage != "read" {
			t.Errorf("expected one read-stage failure detail, got %+v", summary.Failed)
		}
	})

	t.Run("BatchOffsetsStrictlyIncrease", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(60)}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		_, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 1, BatchWorkers: 1, RecordWorkers: 1}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if len(store.offsets) != 60 {
			t.Fatalf("expected 60 page reads, got %d", len(store.offsets))
		}
		for i, offset := range store.offsets {
			if offset != i {
				t.Fatalf("expected offset %d at position %d, got %v", i, i, store.offsets)
			}
		}
	})

	t.Run("MaxBatchesLimitsWork", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(50)}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		summary, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 10, MaxBatches: 2}, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if summary.Success != 20 || summary.Batches != 2 {
			t.Errorf("expected 2 batches of 10, got %+v", summary)
		}
	})

	t.Run("SeedsUserEmailsFromLedger", func(t *testing.T) {
		store := &mockStore{records: []models.SourceRecord{
			{"distinct_author": "Fresh Writer"},
		}}
		dest := &mockDest{}
		engine, outcomes, _ := newTestEngine(t, store, dest)

		for i := 1; i <= 4; i++ {
			entry := models.LedgerEntry{Kind: models.KindUser, SourceID: fmt.Sprintf("Earlier Writer %d", i)}
			if err := outcomes.RecordSuccess(ctx, entry); err != nil {
				t.Fatalf("seed entry failed: %v", err)
			}
		}

		if _, err := engine.Run(ctx, Options{Kind: models.KindUser, Variant: source.VariantTest}, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		user, ok := dest.posts[0].(*models.MappedUser)
		if !ok {
			t.Fatalf("expected *MappedUser, got %T", dest.posts[0])
		}
		if user.Email != "contributor5@onecms.com" {
			t.Errorf("resumed run must continue numbering, got %q", user.Email)
		}
	})

	t.Run("ProgressReachesDone", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(5)}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		progress := make(chan ProgressUpdate, 64)
		if _, err := engine.Run(ctx, Options{Kind: models.KindSponsor, Variant: source.VariantAll, BatchSize: 10}, progress); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(progress)

		var sawDone bool
		for update := range progress {
			if update.Phase == Done {
				sawDone = true
				if _, ok := update.Data.(*models.MigrationSummary); !ok {
					t.Errorf("done update must carry the summary, got %T", update.Data)
				}
			}
		}
		if !sawDone {
			t.Error("expected a Done progress update")
		}
	})
}

func TestEngineRunPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidatesSnapshotAfterUsers", func(t *testing.T) {
		store := &mockStore{records: []models.SourceRecord{{"distinct_author": "A Writer"}}}
		dest := &mockDest{}
		engine, _, snapshots := newTestEngine(t, store, dest)

		steps := []MigrationStep{
			{Options: Options{Kind: models.KindUser, Variant: source.VariantTest}},
			{Options: Options{Kind: models.KindSponsor, Variant: source.VariantTest}},
		}

		summaries, failures := engine.RunPlan(ctx, steps, nil)
		if len(failures) != 0 {
			t.Fatalf("unexpected plan failures: %v", failures)
		}
		if len(summaries) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(summaries))
		}
		if snapshots.invalidated != 1 {
			t.Errorf("expected one snapshot invalidation after the user step, got %d", snapshots.invalidated)
		}
	})

	t.Run("FailedStepDoesNotAbortPlan", func(t *testing.T) {
		store := &mockStore{records: sponsorRecords(2), countErr: errors.New("count timeout")}
		dest := &mockDest{}
		engine, _, _ := newTestEngine(t, store, dest)

		steps := []MigrationStep{
			{Options: Options{Kind: models.KindSponsor, Variant: source.VariantAll}},
			{Options: Options{Kind: models.KindSponsor, Variant: source.VariantTest}},
		}

		summaries, failures := engine.RunPlan(ctx, steps, nil)
		if _, ok := failures[models.KindSponsor]; !ok {
			t.Error("expected the paged step to fail on count")
		}
		if _, ok := summaries[models.KindSponsor]; !ok {
			t.Error("expected the unpaged step to still run")
		}
	})

	t.Run("DefaultPlanCoversEveryKind", func(t *testing.T) {
		steps := DefaultPlan(Options{Variant: source.VariantAll, BatchSize: 20})
		if len(steps) != len(models.Kinds()) {
			t.Fatalf("expected %d steps, got %d", len(models.Kinds()), len(steps))
		}
		if steps[0].Options.Kind != models.KindLeague {
			t.Errorf("plans start with leagues, got %s", steps[0].Options.Kind)
		}
		if steps[len(steps)-1].Options.Kind != models.KindVideo {
			t.Errorf("plans end with videos, got %s", steps[len(steps)-1].Options.Kind)
		}
	})
}
