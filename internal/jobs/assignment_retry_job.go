package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
)

const (
	DefaultRetrySchedule = "*/30 * * * * *"
	DefaultRetryTimeout  = 20 * time.Second
)

// AssignableOrdersReader lists platform orders still waiting for a courier.
type AssignableOrdersReader interface {
	Handle(ctx context.Context, query queries.GetAssignableOrdersQuery) ([]queries.GetAssignableOrdersQueryResponse, error)
}

// RetryReport summarizes one retry pass.
type RetryReport struct {
	Scanned  int
	Assigned int
	Failed   int
}

// AssignmentRetryJob periodically retries courier assignment for platform
// orders that found nobody in range when they were placed. A pass that is
// still running when the next tick fires makes that tick a no-op.
type AssignmentRetryJob struct {
	reader   AssignableOrdersReader
	assigner commands.CourierAssigner
	schedule string
	batch    int
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewAssignmentRetryJob(
	reader AssignableOrdersReader,
	assigner commands.CourierAssigner,
	schedule string,
	batch int,
	logger *slog.Logger,
) *AssignmentRetryJob {
	if schedule == "" {
		schedule = DefaultRetrySchedule
	}
	if batch <= 0 {
		batch = queries.DefaultAssignableOrdersLimit
	}

	return &AssignmentRetryJob{
		reader:   reader,
		assigner: assigner,
		schedule: schedule,
		batch:    batch,
		timeout:  DefaultRetryTimeout,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", "assignment_retry_job"),
	}
}

func (j *AssignmentRetryJob) Name() string {
	return "assignment_retry"
}

// Start registers the pass on the configured schedule and starts the scheduler.
func (j *AssignmentRetryJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		report, err := j.RunOnce(ctx)
		if err != nil {
			j.logger.ErrorContext(ctx, "assignment retry pass failed", "error", err)
			return
		}
		if report.Scanned > 0 {
			j.logger.InfoContext(ctx, "assignment retry pass finished",
				"scanned", report.Scanned,
				"assigned", report.Assigned,
				"failed", report.Failed)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("assignment retry job started", "schedule", j.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (j *AssignmentRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("assignment retry job stopped")
}

// RunOnce retries every assignable order in one batch, oldest first. A failed
// order is logged and skipped; only a failed listing or an ended context
// aborts the pass.
func (j *AssignmentRetryJob) RunOnce(ctx context.Context) (RetryReport, error) {
	query, err := queries.NewGetAssignableOrdersQuery(j.batch)
	if err != nil {
		return RetryReport{}, err
	}

	pending, err := j.reader.Handle(ctx, query)
	if err != nil {
		return RetryReport{}, err
	}

	report := RetryReport{Scanned: len(pending)}
	for _, o := range pending {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		cmd, err := commands.NewAssignCourierCommand(o.ID)
		if err != nil {
			report.Failed++
			continue
		}

		result, err := j.assigner.Handle(ctx, cmd)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return report, err
		case err != nil:
			report.Failed++
			j.logger.WarnContext(ctx, "assignment retry failed", "order_id", o.ID.String(), "error", err)
		case result.Assigned:
			report.Assigned++
		}
	}
	return report, nil
}
