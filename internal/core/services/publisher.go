package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// SinkPublisher delivers a report to every configured sink.
type SinkPublisher struct {
	calls callPolicy
}

// NewSinkPublisher creates a publisher applying the retry policy and
// per-call timeout to every delivery.
func NewSinkPublisher(retry domain.RetryPolicy, timeout time.Duration) *SinkPublisher {
	return &SinkPublisher{calls: callPolicy{retry: retry, timeout: timeout}}
}

// Publish delivers the report to all sinks and returns one result per
// sink in the order given. Sinks are attempted concurrently and
// independently; a failing or panicking sink never affects the others.
//
// Sinks implementing driven.FollowUpSink are delivered after all other
// sinks have finished and receive their results.
func (p *SinkPublisher) Publish(
	ctx context.Context, report *domain.AnalysisReport, sinks []driven.Sink,
) []domain.SinkResult {
	results := make([]domain.SinkResult, len(sinks))
	if len(sinks) == 0 {
		return results
	}

	var primary, followUps []int
	for i, s := range sinks {
		if _, ok := s.(driven.FollowUpSink); ok {
			followUps = append(followUps, i)
		} else {
			primary = append(primary, i)
		}
	}

	p.deliverAll(ctx, report, sinks, primary, results, nil)

	if len(followUps) > 0 {
		prior := make([]domain.SinkResult, 0, len(primary))
		for _, i := range primary {
			prior = append(prior, results[i])
		}
		p.deliverAll(ctx, report, sinks, followUps, results, prior)
	}

	return results
}

// deliverAll delivers to sinks[idx] for each idx concurrently and stores
// each outcome at results[idx].
func (p *SinkPublisher) deliverAll(
	ctx context.Context,
	report *domain.AnalysisReport,
	sinks []driven.Sink,
	indices []int,
	results []domain.SinkResult,
	prior []domain.SinkResult,
) {
	var wg sync.WaitGroup
	for _, idx := range indices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[idx] = p.deliver(ctx, report, sinks[idx], prior)
		}()
	}
	wg.Wait()
}

func (p *SinkPublisher) deliver(
	ctx context.Context, report *domain.AnalysisReport, sink driven.Sink, prior []domain.SinkResult,
) domain.SinkResult {
	name := sinkName(sink)
	result := domain.SinkResult{Sink: name}

	if report == nil {
		result.Status = domain.DeliveryFailed
		result.Reason = (&domain.DeliveryError{Sink: name, Cause: domain.ErrInvalidInput}).Error()
		return result
	}

	var location string
	err := p.calls.do(ctx, "deliver to "+name, func(callCtx context.Context) error {
		loc, deliverErr := safeDeliver(callCtx, sink, report, prior)
		if deliverErr != nil {
			return deliverErr
		}
		location = loc
		return nil
	})

	if err != nil {
		var de *domain.DeliveryError
		if !errors.As(err, &de) {
			de = &domain.DeliveryError{Sink: name, Cause: err}
		}
		logger.Warn("Sink %s failed: %v", name, de.Cause)
		result.Status = domain.DeliveryFailed
		result.Reason = de.Cause.Error()
		return result
	}

	logger.Debug("Sink %s delivered to %q", name, location)
	result.Status = domain.DeliveryDelivered
	result.Location = location
	return result
}

// safeDeliver calls the sink and converts a panic into an error.
func safeDeliver(
	ctx context.Context, sink driven.Sink, report *domain.AnalysisReport, prior []domain.SinkResult,
) (location string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sink panicked: %v", domain.ErrPermanent, r)
		}
	}()

	if fu, ok := sink.(driven.FollowUpSink); ok {
		return fu.DeliverFollowUp(ctx, report, prior)
	}
	return sink.Deliver(ctx, report)
}

func sinkName(sink driven.Sink) (name string) {
	defer func() {
		if recover() != nil {
			name = "unknown"
		}
	}()
	if sink == nil {
		return "unknown"
	}
	return sink.Name()
}
