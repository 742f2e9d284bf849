package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/assetflow/backend/internal/domain/report"
	"github.com/assetflow/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// WorkflowMetrics counts workflow transitions and samples the size of the
// review queues.
type WorkflowMetrics struct {
	logger *zap.Logger
	source report.Repository
	now    func() time.Time

	transitions     *Counter
	pendingRequests *Gauge
	outstanding     *Gauge
	overdue         *Gauge
	reviewQueue     *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// NewWorkflowMetrics registers the workflow instruments on meter. source may
// be nil when no periodic sampling is wanted.
func NewWorkflowMetrics(meter metric.Meter, source report.Repository, logger *zap.Logger) (*WorkflowMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	wm := &WorkflowMetrics{
		logger:   logger,
		source:   source,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	var err error
	if wm.transitions, err = NewCounter(meter, "assetflow_workflow_transitions_total",
		"Workflow transitions by outcome", "{transitions}"); err != nil {
		return nil, err
	}
	if wm.pendingRequests, err = NewGauge(meter, "assetflow_requests_pending",
		"Requests waiting for a decision", "{requests}"); err != nil {
		return nil, err
	}
	if wm.outstanding, err = NewGauge(meter, "assetflow_assignments_outstanding",
		"Assignments not yet returned", "{assignments}"); err != nil {
		return nil, err
	}
	if wm.overdue, err = NewGauge(meter, "assetflow_assignments_overdue",
		"Outstanding assignments past their due date", "{assignments}"); err != nil {
		return nil, err
	}
	if wm.reviewQueue, err = NewGauge(meter, "assetflow_review_queue",
		"Return and extension requests waiting for review", "{items}"); err != nil {
		return nil, err
	}
	return wm, nil
}

// RecordTransition counts one attempted transition. Refusals carry the
// domain error code.
func (wm *WorkflowMetrics) RecordTransition(ctx context.Context, transition string, err error) {
	if err == nil {
		wm.transitions.Inc(ctx, AttrTransition.String(transition), AttrOutcome.String("committed"))
		return
	}
	code := "INTERNAL"
	var de *shared.DomainError
	if errors.As(err, &de) {
		code = de.Code
	}
	wm.transitions.Inc(ctx,
		AttrTransition.String(transition),
		AttrOutcome.String("refused"),
		AttrErrorCode.String(code),
	)
}

// Collect samples queue sizes once
func (wm *WorkflowMetrics) Collect(ctx context.Context) error {
	if wm.source == nil {
		return nil
	}
	counts, err := wm.source.RequestCounts(ctx, nil)
	if err != nil {
		return err
	}
	rows, err := wm.source.OutstandingAssignments(ctx, report.AssignmentRowFilter{})
	if err != nil {
		return err
	}

	now := wm.now()
	var overdue, returns, extensions int64
	for _, row := range rows {
		if row.IsOverdue(now) {
			overdue++
		}
		if row.ReturnStatus == "requested" {
			returns++
		}
		if row.ExtensionStatus == "requested" {
			extensions++
		}
	}

	wm.pendingRequests.Record(ctx, counts["pending"])
	wm.outstanding.Record(ctx, int64(len(rows)))
	wm.overdue.Record(ctx, overdue)
	wm.reviewQueue.Record(ctx, returns, AttrQueue.String("return"))
	wm.reviewQueue.Record(ctx, extensions, AttrQueue.String("extension"))
	return nil
}

// StartPeriodicCollection samples every interval until Stop. Only the first
// call starts a collector.
func (wm *WorkflowMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if wm.source == nil || interval <= 0 {
		return
	}
	wm.collectOnce.Do(func() {
		wm.wg.Add(1)
		go wm.runPeriodicCollection(ctx, interval)
	})
}

func (wm *WorkflowMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	defer wm.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wm.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-wm.stopChan:
			return
		case <-ticker.C:
			wm.collect(ctx)
		}
	}
}

func (wm *WorkflowMetrics) collect(ctx context.Context) {
	if err := wm.Collect(ctx); err != nil {
		wm.logger.Warn("Failed to collect workflow metrics", zap.Error(err))
	}
}

// Stop ends periodic collection. It is safe to call more than once.
func (wm *WorkflowMetrics) Stop() {
	wm.stopOnce.Do(func() { close(wm.stopChan) })
	wm.wg.Wait()
}
