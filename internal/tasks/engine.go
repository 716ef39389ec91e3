// Package tasks orchestrates batch migrations from the legacy database to
// the destination CMS.
//
// The core abstraction is Engine, which drives one content kind through the
// phases Initializing, CountingTotal, ProcessingBatches, Reporting and Done.
// Runs emit progress updates via channels for non-blocking status reporting
// to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sportsdesk/cmx/internal/mapper"
	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
	"github.com/sportsdesk/cmx/internal/source"
)

const (
	defaultBatchSize     = 10
	defaultBatchWorkers  = 2
	defaultRecordWorkers = 10
)

// Options configures one migration run.
type Options struct {
	Kind          models.Kind
	Variant       source.Variant
	BatchSize     int
	MaxBatches    int // 0 means all batches
	StartOffset   int
	BatchWorkers  int
	RecordWorkers int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchWorkers <= 0 {
		o.BatchWorkers = defaultBatchWorkers
	}
	if o.RecordWorkers <= 0 {
		o.RecordWorkers = defaultRecordWorkers
	}
	if o.Variant == "" {
		o.Variant = source.VariantAll
	}
	return o
}

// OutcomeStore is the slice of the ledger the engine writes through.
type OutcomeStore interface {
	QueryExisting(ctx context.Context, kind models.Kind, ids []string) (map[string]bool, error)
	RecordSuccess(ctx context.Context, entry models.LedgerEntry) error
	RecordFailure(ctx context.Context, entry models.LedgerEntry) error
	SuccessCount(ctx context.Context, kind models.Kind) (int, error)
}

// SnapshotSource provides the run-scoped reference snapshot.
type SnapshotSource interface {
	Get(ctx context.Context) (*models.ReferenceSnapshot, error)
	Invalidate()
}

// Engine migrates one content kind per Run call. Safe to reuse across runs.
type Engine struct {
	store     source.Store
	dest      services.Destination
	ledger    OutcomeStore
	snapshots SnapshotSource
	registry  *mapper.Registry
	media     mapper.MediaResolver
	logger    *log.Logger

	fallbackAuthor string
	emailDomain    string

	// planDelay separates sequential runs in RunPlan so the destination
	// gets a breather between kinds.
	planDelay time.Duration
}

// EngineOpts contains the dependencies for NewEngine.
type EngineOpts struct {
	Store          source.Store
	Destination    services.Destination
	Ledger         OutcomeStore
	Snapshots      SnapshotSource
	Registry       *mapper.Registry
	Media          mapper.MediaResolver
	FallbackAuthor string
	EmailDomain    string
	Logger         *log.Logger

	// PlanDelay overrides the pause between RunPlan steps. Zero keeps
	// the one second default.
	PlanDelay time.Duration
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	registry := opts.Registry
	if registry == nil {
		registry = mapper.NewRegistry()
	}
	planDelay := opts.PlanDelay
	if planDelay == 0 {
		planDelay = time.Second
	}
	return &Engine{
		store:          opts.Store,
		dest:           opts.Destination,
		ledger:         opts.Ledger,
		snapshots:      opts.Snapshots,
		registry:       registry,
		media:          opts.Media,
		logger:         logger,
		fallbackAuthor: opts.FallbackAuthor,
		emailDomain:    opts.EmailDomain,
		planDelay:      planDelay,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// batchResult aggregates record classifications for one batch.
type batchResult struct {
	success  int
	errors   int
	existing int
	skipped  int
	total    int
	failed   []models.FailureDetail
}

func (r *batchResult) merge(other batchResult) {
	r.success += other.success
	r.errors += other.errors
	r.existing += other.existing
	r.skipped += other.skipped
	r.total += other.total
	r.failed = append(r.failed, other.failed...)
}

// Run migrates one content kind and returns its summary. The summary is
// produced even when individual batches fail; only initialization errors
// (snapshot, count, unknown kind) abort the run.
func (e *Engine) Run(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*models.MigrationSummary, error) {
	opts = opts.withDefaults()
	started := time.Now()

	e.sendProgress(progress, initializingUpdate(opts.Kind))

	m, err := e.registry.ForKind(opts.Kind)
	if err != nil {
		return nil, err
	}

	snap, err := e.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}

	rc := &mapper.RunContext{
		Snapshot:       snap,
		Media:          e.media,
		FallbackAuthor: e.fallbackAuthor,
		EmailDomain:    e.emailDomain,
	}

	// Resumed user runs continue contributor numbering where they stopped.
	if opts.Kind == models.KindUser {
		migrated, err := e.ledger.SuccessCount(ctx, models.KindUser)
		if err != nil {
			return nil, err
		}
		rc.SeedEmails(migrated)
	}

	summary := &models.MigrationSummary{Kind: opts.Kind}

	if !opts.Variant.Paged() {
		records, err := e.store.ReadPage(ctx, opts.Kind, opts.Variant, 0, 0)
		if err != nil {
			return nil, err
		}

		result := e.processBatch(ctx, rc, m, opts, records)
		fillSummary(summary, result, result.total, 1, time.Since(started))
		e.sendProgress(progress, reportingUpdate(summary))
		e.sendProgress(progress, doneUpdate(summary))
		e.logSummary(summary)
		return summary, nil
	}

	e.sendProgress(progress, countingUpdate(opts.Kind))
	total, err := e.store.Count(ctx, opts.Kind)
	if err != nil {
		return nil, err
	}

	totalBatches := (total - opts.StartOffset + opts.BatchSize - 1) / opts.BatchSize
	if totalBatches < 0 {
		totalBatches = 0
	}
	if opts.MaxBatches > 0 && opts.MaxBatches < totalBatches {
		totalBatches = opts.MaxBatches
	}
	e.sendProgress(progress, countedUpdate(opts.Kind, total, totalBatches))

	overall := batchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Batches are handed to a fixed worker pool through an ordered channel
	// so offsets are always picked up in strictly increasing order.
	batches := make(chan int)
	go func() {
		defer close(batches)
		for batch := 0; batch < totalBatches; batch++ {
			select {
			case batches <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	for w := 0; w < opts.BatchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				offset := opts.StartOffset + batch*opts.BatchSize

				e.sendProgress(progress, batchUpdate(batch+1, totalBatches, offset))

				records, err := e.store.ReadPage(ctx, opts.Kind, opts.Variant, offset, opts.BatchSize)
				if err != nil {
					// A lost page fails its whole batch; later offsets still run.
					e.logger.Error("batch read failed", "kind", opts.Kind, "offset", offset, "error", err)
					mu.Lock()
					overall.errors += opts.BatchSize
					overall.total += opts.BatchSize
					overall.failed = append(overall.failed, models.FailureDetail{
						SourceID: fmt.Sprintf("offset %d", offset),
						Stage:    "read",
						Reason:   err.Error(),
					})
					mu.Unlock()
					continue
				}
				if len(records) == 0 {
					continue
				}

				result := e.processBatch(ctx, rc, m, opts, records)
				e.sendProgress(progress, batchDoneUpdate(batch+1, totalBatches, result))

				mu.Lock()
				overall.merge(result)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	fillSummary(summary, overall, total, totalBatches, time.Since(started))
	e.sendProgress(progress, reportingUpdate(summary))
	e.sendProgress(progress, doneUpdate(summary))
	e.logSummary(summary)
	return summary, nil
}

// processBatch classifies every record in one page: already migrated,
// skipped by the mapper, posted, duplicate, or failed. Exactly one ledger
// write happens per attempted record.
func (e *Engine) processBatch(ctx context.Context, rc *mapper.RunContext, m mapper.Mapper, opts Options, records []models.SourceRecord) batchResult {
	result := batchResult{total: len(records)}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		if id := record.ID(opts.Kind); id != "" {
			ids = append(ids, id)
		}
	}

	migrated, err := e.ledger.QueryExisting(ctx, opts.Kind, ids)
	if err != nil {
		// Without the filter every record would re-post; fail the batch.
		e.logger.Error("ledger filter failed", "kind", opts.Kind, "error", err)
		result.errors = len(records)
		result.failed = append(result.failed, models.FailureDetail{Stage: "ledger", Reason: err.Error()})
		return result
	}

	pending := make([]models.SourceRecord, 0, len(records))
	for _, record := range records {
		id := record.ID(opts.Kind)
		switch {
		case id == "":
			result.skipped++
		case migrated[id]:
			result.existing++
		default:
			pending = append(pending, record)
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.RecordWorkers)

	for _, record := range pending {
		wg.Add(1)
		go func(record models.SourceRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := e.processRecord(ctx, rc, m, opts.Kind, record)
			mu.Lock()
			result.merge(outcome)
			mu.Unlock()
		}(record)
	}
	wg.Wait()

	return result
}

// processRecord takes one source record through map, existence check and
// post. The returned batchResult has exactly one counter set.
func (e *Engine) processRecord(ctx context.Context, rc *mapper.RunContext, m mapper.Mapper, kind models.Kind, record models.SourceRecord) batchResult {
	sourceID := record.ID(kind)

	mapped, err := m.Map(ctx, rc, record)
	if err != nil {
		e.recordFailure(ctx, kind, sourceID, "map", err)
		return batchResult{errors: 1, failed: []models.FailureDetail{{SourceID: sourceID, Stage: "map", Reason: err.Error()}}}
	}
	if mapped == nil {
		// Intentional skip: no ledger trace.
		e.logger.Debug("record skipped by mapper", "kind", kind, "sourceId", sourceID)
		return batchResult{skipped: 1}
	}

	// Content posts are expensive; ask the destination before re-posting
	// records the ledger has no memory of.
	if kind == models.KindArticle || kind == models.KindVideo {
		if exists, _ := e.dest.Exists(ctx, kind, sourceID); exists {
			e.logger.Info("record already in destination", "kind", kind, "sourceId", sourceID)
			return batchResult{existing: 1}
		}
	}

	res, err := e.dest.Post(ctx, kind, mapped)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return batchResult{existing: 1}
		}
		e.recordFailure(ctx, kind, sourceID, "post", err)
		return batchResult{errors: 1, failed: []models.FailureDetail{{SourceID: sourceID, Stage: "post", Reason: err.Error()}}}
	}

	title, slug := entryMeta(mapped)
	err = e.ledger.RecordSuccess(ctx, models.LedgerEntry{
		Kind:          kind,
		SourceID:      sourceID,
		Outcome:       models.OutcomeSuccess,
		DestinationID: res.DestinationID,
		Title:         title,
		Slug:          slug,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return batchResult{existing: 1}
		}
		e.recordFailure(ctx, kind, sourceID, "ledger", err)
		return batchResult{errors: 1, failed: []models.FailureDetail{{SourceID: sourceID, Stage: "ledger", Reason: err.Error()}}}
	}

	return batchResult{success: 1}
}

func (e *Engine) recordFailure(ctx context.Context, kind models.Kind, sourceID, stage string, cause error) {
	err := e.ledger.RecordFailure(ctx, models.LedgerEntry{
		Kind:     kind,
		SourceID: sourceID,
		Outcome:  models.OutcomeFailure,
		Stage:    stage,
		Reason:   cause.Error(),
	})
	if err != nil {
		e.logger.Error("failed to record failure", "kind", kind, "sourceId", sourceID, "error", err)
	}
}

func (e *Engine) logSummary(summary *models.MigrationSummary) {
	e.logger.Info("migration completed",
		"kind", summary.Kind,
		"success", summary.Success,
		"existing", summary.Existing,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"processed", summary.Processed(),
		"totalAvailable", summary.TotalAvailable,
		"duration", summary.Duration,
	)
}

func fillSummary(summary *models.MigrationSummary, result batchResult, totalAvailable, batches int, duration time.Duration) {
	summary.Success = result.success
	summary.Errors = result.errors
	summary.Existing = result.existing
	summary.Skipped = result.skipped
	summary.Total = result.total
	summary.TotalAvailable = totalAvailable
	summary.Batches = batches
	summary.Duration = duration
	summary.Failed = result.failed
}

// entryMeta pulls the display fields ledger entries carry for auditing.
func entryMeta(mapped models.MappedRecord) (string, string) {
	switch v := mapped.(type) {
	case *models.MappedContent:
		return v.Title, v.Slug
	case *models.MappedTaxonomy:
		return v.Name, v.Link
	case *models.MappedSponsor:
		return v.Name, ""
	case *models.MappedUser:
		return v.FirstName + " " + v.LastName, v.Email
	default:
		return "", ""
	}
}
