package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrisk/internal/chunker"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Pipeline = (*Orchestrator)(nil)

// Orchestrator drives one document through the pipeline:
//
//	loading -> chunking -> analyzing || answering -> aggregating -> publishing -> done
//
// An Orchestrator holds no per-run state and may be reused across runs.
type Orchestrator struct {
	cfg       domain.PipelineConfig
	loader    driven.DocumentLoader
	chunker   *chunker.Processor
	findings  *FindingGenerator
	responder *QueryResponder
	publisher *SinkPublisher
	sinks     []driven.Sink

	mu        sync.RWMutex
	observers []driving.RunObserver

	newRunID func() string
	now      func() time.Time
}

// NewOrchestrator wires the pipeline components from explicit configuration.
// The loader, prompts and sinks parameters are optional (can be nil).
// Returns domain.ErrInvalidInput when cfg is invalid.
func NewOrchestrator(
	cfg domain.PipelineConfig,
	loader driven.DocumentLoader,
	generator driven.TextGenerator,
	retrievers driven.RetrieverBuilder,
	prompts driven.PromptStore,
	sinks []driven.Sink,
) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if generator == nil {
		return nil, domain.ErrGeneratorUnavailable
	}

	return &Orchestrator{
		cfg:       cfg,
		loader:    loader,
		chunker:   chunker.New(chunker.WithChunkSize(cfg.ChunkSize)),
		findings:  NewFindingGenerator(generator, prompts, cfg),
		responder: NewQueryResponder(generator, retrievers, prompts, cfg),
		publisher: NewSinkPublisher(cfg.Retry, cfg.CallTimeout),
		sinks:     sinks,
		newRunID:  func() string { return uuid.New().String() },
		now:       time.Now,
	}, nil
}

// AddObserver registers an observer for stage events of subsequent runs.
func (o *Orchestrator) AddObserver(obs driving.RunObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Sinks returns the names of the configured sinks in delivery order.
func (o *Orchestrator) Sinks() []string {
	names := make([]string, 0, len(o.sinks))
	for _, s := range o.sinks {
		names = append(names, sinkName(s))
	}
	return names
}

// Run loads the document at source and analyses it.
func (o *Orchestrator) Run(ctx context.Context, source, query string) (*domain.RunResult, error) {
	r := o.startRun()
	logger.Section("Pipeline Run")
	logger.Debug("Run %s: source=%q", r.result.RunID, source)

	r.enter(domain.StageLoading, source)
	if err := checkQuery(query); err != nil {
		return r.fail(domain.StageLoading, err)
	}
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StageLoading, err)
	}
	if o.loader == nil {
		return r.fail(domain.StageLoading, fmt.Errorf("%w: no document loader configured", domain.ErrInvalidInput))
	}

	doc, err := o.loader.Load(ctx, source)
	if err != nil {
		return r.fail(domain.StageLoading, fmt.Errorf("load %s: %w", source, err))
	}
	logger.Debug("Loaded %q (%d bytes)", doc.Name, len(doc.Text))

	return o.process(ctx, r, doc, query)
}

// Analyze runs the pipeline on an already-loaded document.
func (o *Orchestrator) Analyze(ctx context.Context, doc *domain.Document, query string) (*domain.RunResult, error) {
	r := o.startRun()
	logger.Section("Pipeline Run")

	name := ""
	if doc != nil {
		name = doc.Name
	}
	r.enter(domain.StageLoading, name)
	if err := checkQuery(query); err != nil {
		return r.fail(domain.StageLoading, err)
	}
	if doc == nil {
		return r.fail(domain.StageLoading, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput))
	}
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StageLoading, err)
	}

	return o.process(ctx, r, doc, query)
}

// process runs every stage after loading.
func (o *Orchestrator) process(
	ctx context.Context, r *run, doc *domain.Document, query string,
) (*domain.RunResult, error) {
	// Chunking
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StageChunking, err)
	}
	r.enter(domain.StageChunking, "")
	chunks, err := o.chunker.Process(ctx, doc)
	if err != nil {
		return r.fail(domain.StageChunking, err)
	}
	logger.Info("Split %q into %d chunks of up to %d characters", doc.Name, len(chunks), o.chunker.ChunkSize())

	// Analyzing and answering run concurrently.
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StageAnalyzing, err)
	}
	r.enter(domain.StageAnalyzing, fmt.Sprintf("0/%d chunks", len(chunks)))
	r.enter(domain.StageAnswering, query)

	var (
		wg       sync.WaitGroup
		findings []domain.Finding
		failures []*domain.GenerationError
		answer   domain.QueryAnswer
		queryErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		findings, failures = o.findings.AnalyzeAll(ctx, chunks, func(done, total int) {
			r.progress(domain.StageAnalyzing, fmt.Sprintf("%d/%d chunks", done, total))
		})
	}()
	go func() {
		defer wg.Done()
		answer, queryErr = o.responder.Answer(ctx, doc, query)
	}()
	wg.Wait()

	if len(failures) > 0 && o.cfg.ZeroTolerance {
		return r.fail(domain.StageAnalyzing, failures[0])
	}
	if queryErr != nil && o.cfg.ZeroTolerance {
		return r.fail(domain.StageAnswering, queryErr)
	}
	if queryErr != nil && errors.Is(queryErr, domain.ErrInvalidInput) {
		return r.fail(domain.StageAnswering, queryErr)
	}

	gaps := make([]domain.Gap, 0, len(failures))
	for _, f := range failures {
		gaps = append(gaps, domain.Gap{ChunkIndex: f.ChunkIndex, Reason: f.Cause.Error()})
		r.warn(fmt.Sprintf("chunk %d: %v", f.ChunkIndex, f.Cause))
	}
	if queryErr != nil {
		answer = domain.QueryAnswer{Query: query}
		r.warn(queryErr.Error())
	}

	// Aggregating
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StageAggregating, err)
	}
	r.enter(domain.StageAggregating, "")
	report, err := Aggregate(answer, findings, gaps, len(chunks))
	if err != nil {
		return r.fail(domain.StageAggregating, err)
	}
	report.RunID = r.result.RunID
	report.Source = doc.Name
	report.GeneratedAt = o.now().UTC()
	r.result.Report = &report

	// Publishing
	if err := checkCancelled(ctx); err != nil {
		return r.fail(domain.StagePublishing, err)
	}
	r.enter(domain.StagePublishing, fmt.Sprintf("%d sinks", len(o.sinks)))
	r.result.SinkResults = o.publisher.Publish(ctx, &report, o.sinks)
	for _, sr := range r.result.SinkResults {
		if !sr.Delivered() {
			r.warn(fmt.Sprintf("sink %s: %s", sr.Sink, sr.Reason))
		}
	}

	return r.finish()
}

func (o *Orchestrator) startRun() *run {
	o.mu.RLock()
	observers := make([]driving.RunObserver, len(o.observers))
	copy(observers, o.observers)
	o.mu.RUnlock()

	return &run{
		result: &domain.RunResult{
			RunID:  o.newRunID(),
			Status: domain.RunCompleted,
			Stage:  domain.StageIdle,
		},
		observers: observers,
	}
}

// run is the mutable state of one pipeline run.
type run struct {
	mu        sync.Mutex
	result    *domain.RunResult
	observers []driving.RunObserver
}

func (r *run) enter(stage domain.Stage, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Stage = stage
	r.emitLocked(domain.StageEvent{RunID: r.result.RunID, Stage: stage, Detail: detail})
}

// progress reports detail for a stage without changing the current stage.
func (r *run) progress(stage domain.Stage, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(domain.StageEvent{RunID: r.result.RunID, Stage: stage, Detail: detail})
}

func (r *run) warn(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Warnings = append(r.result.Warnings, msg)
}

func (r *run) fail(stage domain.Stage, err error) (*domain.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stageErr := &domain.StageError{Stage: stage, Err: err}
	r.result.Status = domain.RunFailed
	r.result.Stage = stage
	r.result.Err = stageErr
	logger.Warn("Run %s failed at %s: %v", r.result.RunID, stage, err)
	r.emitLocked(domain.StageEvent{RunID: r.result.RunID, Stage: domain.StageFailed, Detail: stage.String(), Err: stageErr})
	return r.result, stageErr
}

func (r *run) finish() (*domain.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.result.Warnings) > 0 {
		r.result.Status = domain.RunCompletedWithWarnings
	}
	r.result.Stage = domain.StageDone
	logger.Info("Run %s: %s (%d warnings)", r.result.RunID, r.result.Status.Description(), len(r.result.Warnings))
	r.emitLocked(domain.StageEvent{RunID: r.result.RunID, Stage: domain.StageDone, Detail: string(r.result.Status)})
	return r.result, nil
}

func (r *run) emitLocked(event domain.StageEvent) {
	for _, obs := range r.observers {
		obs.OnStage(event)
	}
}

func checkQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	return nil
}
