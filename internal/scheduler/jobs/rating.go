package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/etfrating/internal/pipeline"
	"github.com/wonny/etfrating/internal/scheduler"
	"github.com/wonny/etfrating/pkg/logger"
)

// RatingRunner executes one rating pass
type RatingRunner interface {
	Run(ctx context.Context, codes []string) (*pipeline.Outcome, error)
}

// RatingJob rates the whole universe after the close
type RatingJob struct {
	runner   RatingRunner
	schedule string
	logger   *logger.Logger
}

// NewRatingJob creates a new rating job
func NewRatingJob(runner RatingRunner, schedule string, log *logger.Logger) *RatingJob {
	if schedule == "" {
		schedule = "0 30 15 * * 1-5" // 평일 15:30 (장 마감 후)
	}
	return &RatingJob{
		runner:   runner,
		schedule: schedule,
		logger:   log.WithField("job", "rating"),
	}
}

// Name returns the job name
func (j *RatingJob) Name() string {
	return "rating"
}

// Schedule returns the cron schedule
func (j *RatingJob) Schedule() string {
	return j.schedule
}

// Run executes the rating pass
func (j *RatingJob) Run(ctx context.Context) error {
	out, err := j.runner.Run(ctx, nil)
	if out == nil {
		return fmt.Errorf("rating failed: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":    out.Run.RunID,
		"ranked":    len(out.Run.Ranked),
		"excluded":  len(out.Run.Excluded),
		"persisted": out.Persisted,
	}
	if len(out.Run.Ranked) > 0 {
		fields["top"] = out.Run.Ranked[0].Code()
	}
	j.logger.WithFields(fields).Info("Rating job completed")

	scheduler.Report(ctx, scheduler.RunReport{
		RunID:     out.Run.RunID,
		Processed: out.Run.Universe,
		Succeeded: len(out.Run.Ranked),
		Failed:    len(out.Run.Excluded),
		Persisted: out.Persisted,
	})

	// export/persist failures make the job fail so it is retried
	return err
}
