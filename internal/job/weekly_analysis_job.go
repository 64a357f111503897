package job

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
	"longentry/internal/service"
)

var ErrRunInProgress = errors.New("analysis run already in progress")

type AnalysisRunner interface {
	RunWeekly(ctx context.Context) (*service.RunReport, error)
}

// HeatmapInvalidator drops cached heatmaps once a run has replaced the
// optimal hours they were built from.
type HeatmapInvalidator interface {
	Invalidate(ctx context.Context, week time.Time) error
}

// WeeklyAnalysisJob runs the batch analysis on a cron schedule. RunOnce is
// shared with manual triggers so at most one run is in flight.
type WeeklyAnalysisJob struct {
	tracer   trace.Tracer
	logger   *log.Logger
	runner   AnalysisRunner
	heatmaps HeatmapInvalidator
	spec     string
	schedule cron.Schedule
	running  atomic.Bool
}

func NewWeeklyAnalysisJob(tracer trace.Tracer, logger *log.Logger, runner AnalysisRunner, heatmaps HeatmapInvalidator, spec string) (*WeeklyAnalysisJob, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse analysis schedule %q: %w", spec, err)
	}
	return &WeeklyAnalysisJob{
		tracer:   tracer,
		logger:   logger,
		runner:   runner,
		heatmaps: heatmaps,
		spec:     spec,
		schedule: schedule,
	}, nil
}

// Start blocks until ctx is cancelled, firing RunOnce on the schedule in UTC.
func (j *WeeklyAnalysisJob) Start(ctx context.Context) {
	if j.runner == nil {
		j.logger.Warn("weekly analysis job disabled: no runner")
		<-ctx.Done()
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	c.Schedule(j.schedule, cron.FuncJob(func() {
		_, _ = j.RunOnce(ctx)
	}))
	c.Start()
	j.logger.Info("weekly analysis scheduled", "schedule", j.spec, "next", j.schedule.Next(time.Now().UTC()))

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info("weekly analysis job stopped")
}

// RunOnce executes one analysis run. It returns ErrRunInProgress when another
// run has not finished yet.
func (j *WeeklyAnalysisJob) RunOnce(ctx context.Context) (*service.RunReport, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer j.running.Store(false)

	ctx, span := j.tracer.Start(ctx, "weekly-analysis-job.run-once")
	defer span.End()

	report, err := j.runner.RunWeekly(ctx)
	if report != nil {
		span.SetAttributes(
			attribute.String("run_id", report.RunID),
			attribute.Int("scored", len(report.Scores)),
			attribute.Int("failed", len(report.Errors)),
		)
		if j.heatmaps != nil {
			if ierr := j.heatmaps.Invalidate(ctx, report.Week); ierr != nil {
				j.logger.Warn("heatmap cache invalidation failed", "err", ierr)
			}
		}
	}

	switch {
	case errors.Is(err, domain.ErrMajorityFailed):
		span.RecordError(err)
		j.logger.Error("weekly analysis mostly failed", "run_id", report.RunID, "failed", len(report.Errors), "scored", len(report.Scores))
	case err != nil:
		span.RecordError(err)
		j.logger.Error("weekly analysis failed", "err", err)
	default:
		j.logger.Info("weekly analysis finished", "run_id", report.RunID, "active", report.Active(), "duration", report.Duration)
	}
	return report, err
}

func (j *WeeklyAnalysisJob) Running() bool {
	return j.running.Load()
}
