package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// errEmptyGeneration is the cause recorded when a backend returns only whitespace.
var errEmptyGeneration = errors.New("empty response")

// ProgressFunc reports how many of total units have finished.
type ProgressFunc func(done, total int)

// FindingGenerator turns chunks into findings using a TextGenerator.
type FindingGenerator struct {
	generator     driven.TextGenerator
	prompts       driven.PromptStore
	opts          driven.GenerateOptions
	calls         callPolicy
	parallelism   int
	zeroTolerance bool
}

// NewFindingGenerator creates a finding generator.
// The prompts parameter is optional (can be nil); built-in prompts are used then.
func NewFindingGenerator(
	generator driven.TextGenerator,
	prompts driven.PromptStore,
	cfg domain.PipelineConfig,
) *FindingGenerator {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = domain.DefaultParallelism
	}
	return &FindingGenerator{
		generator: generator,
		prompts:   prompts,
		opts: driven.GenerateOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		calls:         callPolicy{retry: cfg.Retry, timeout: cfg.CallTimeout},
		parallelism:   parallelism,
		zeroTolerance: cfg.ZeroTolerance,
	}
}

// Analyze produces the risk analysis and recommendation for one chunk.
// Any failure is returned as a *domain.GenerationError.
func (g *FindingGenerator) Analyze(ctx context.Context, chunk domain.Chunk) (domain.Finding, error) {
	if g.generator == nil {
		return domain.Finding{}, &domain.GenerationError{ChunkIndex: chunk.Index, Cause: domain.ErrGeneratorUnavailable}
	}

	analysis, err := g.generate(ctx, chunk, "analysis", driven.PromptRiskAnalysis)
	if err != nil {
		return domain.Finding{}, &domain.GenerationError{ChunkIndex: chunk.Index, Cause: fmt.Errorf("analysis: %w", err)}
	}

	recommendation, err := g.generate(ctx, chunk, "recommendation", driven.PromptRecommendation)
	if err != nil {
		return domain.Finding{}, &domain.GenerationError{ChunkIndex: chunk.Index, Cause: fmt.Errorf("recommendation: %w", err)}
	}

	return domain.Finding{
		ChunkIndex:     chunk.Index,
		Context:        chunk.Text,
		Analysis:       analysis,
		Recommendation: recommendation,
	}, nil
}

func (g *FindingGenerator) generate(ctx context.Context, chunk domain.Chunk, label, promptName string) (string, error) {
	prompt := fillPrompt(loadPrompt(g.prompts, promptName), chunk.Text)
	op := fmt.Sprintf("chunk %d %s", chunk.Index, label)

	var text string
	err := g.calls.do(ctx, op, func(callCtx context.Context) error {
		out, err := g.generator.Generate(callCtx, prompt, g.opts)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return errEmptyGeneration
		}
		text = strings.TrimSpace(out)
		return nil
	})
	return text, err
}

// AnalyzeAll analyses every chunk with at most Parallelism calls in flight.
// Findings are returned in chunk-index order; failures are returned
// separately, also in index order, so every chunk appears exactly once
// across both slices.
//
// In-flight calls are never preempted: they run detached from ctx with
// their own timeout. When ctx is done, or after the first failure under
// zero-tolerance, no further chunks are dispatched; undispatched chunks
// are reported as failures.
func (g *FindingGenerator) AnalyzeAll(
	ctx context.Context, chunks []domain.Chunk, progress ProgressFunc,
) ([]domain.Finding, []*domain.GenerationError) {
	total := len(chunks)
	findings := make([]domain.Finding, 0, total)
	var failures []*domain.GenerationError
	if total == 0 {
		return findings, nil
	}

	logger.Debug("Analysing %d chunks (parallelism=%d, zero_tolerance=%t)", total, g.parallelism, g.zeroTolerance)

	var (
		mu      sync.Mutex
		done    int
		stopped atomic.Bool
	)
	record := func(f *domain.Finding, ge *domain.GenerationError) {
		mu.Lock()
		defer mu.Unlock()
		if ge != nil {
			failures = append(failures, ge)
		} else {
			findings = append(findings, *f)
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	detached := context.WithoutCancel(ctx)
	var eg errgroup.Group
	eg.SetLimit(g.parallelism)

	for _, chunk := range chunks {
		if cause := skipCause(ctx, &stopped); cause != nil {
			record(nil, &domain.GenerationError{ChunkIndex: chunk.Index, Cause: cause})
			continue
		}

		eg.Go(func() error {
			// The stop condition may have changed while waiting for a slot.
			if cause := skipCause(ctx, &stopped); cause != nil {
				record(nil, &domain.GenerationError{ChunkIndex: chunk.Index, Cause: cause})
				return nil
			}
			f, err := g.Analyze(detached, chunk)
			if err != nil {
				var ge *domain.GenerationError
				if !errors.As(err, &ge) {
					ge = &domain.GenerationError{ChunkIndex: chunk.Index, Cause: err}
				}
				logger.Warn("Chunk %d failed: %v", chunk.Index, ge.Cause)
				if g.zeroTolerance {
					stopped.Store(true)
				}
				record(nil, ge)
				return nil
			}
			record(&f, nil)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(findings, func(i, j int) bool { return findings[i].ChunkIndex < findings[j].ChunkIndex })
	sort.Slice(failures, func(i, j int) bool { return failures[i].ChunkIndex < failures[j].ChunkIndex })

	logger.Debug("Analysis finished: %d findings, %d failures", len(findings), len(failures))
	return findings, failures
}

// errNotDispatched is the cause recorded for chunks skipped under zero-tolerance.
var errNotDispatched = errors.New("not dispatched after an earlier failure")

// skipCause returns why a chunk must not be dispatched, or nil.
func skipCause(ctx context.Context, stopped *atomic.Bool) error {
	if ctx.Err() != nil {
		return domain.ErrCancelled
	}
	if stopped.Load() {
		return errNotDispatched
	}
	return nil
}
