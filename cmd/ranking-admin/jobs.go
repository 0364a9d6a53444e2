package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/devseed"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/migrate"
	"github.com/gradlift/ranking-go/internal/queue"
	"github.com/gradlift/ranking-go/internal/util"
)

// runStatus prints a job row plus its committed result when one exists.
func runStatus(ctx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ranking-admin status <job-id>")
	}
	jobID := args[0]

	db, _, err := connectInfraWithOptions(&connectInfraOptions{
		Logger: ctx.Logger,
		Config: &ctx.Config,
		WantDB: true,
	})
	if err != nil {
		return err
	}
	defer closeInfra(ctx.Logger, db, nil)

	jobs := data.NewJobRepo(db)
	results := data.NewResultRepo(db, jobs)

	job, err := jobs.GetByID(ctx.Ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", job.ID)
	fmt.Fprintf(w, "item_ref\t%s\n", job.ItemRef)
	fmt.Fprintf(w, "status\t%s\n", job.Status)
	fmt.Fprintf(w, "config_version\t%s\n", job.ConfigVersion)
	fmt.Fprintf(w, "attempts\t%d/%d\n", job.AttemptCount, job.MaxAttempts)
	fmt.Fprintf(w, "enqueued_at\t%s\n", job.EnqueuedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "processing\t%s\n", util.FormatProcessingDuration(processingDuration(job)))
	if job.LastError != nil {
		fmt.Fprintf(w, "last_error\t%s\n", *job.LastError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	result, err := results.GetByJobID(ctx.Ctx, jobID)
	if err != nil {
		ctx.Logger.InfoContext(ctx.Ctx, "no committed result for job", "job_id", jobID)
		return nil
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return writef(os.Stdout, "\nresult:\n%s\n", encoded)
}

func processingDuration(job *model.ScoringJob) time.Duration {
	if job.StartedAt == nil || job.CompletedAt == nil {
		return 0
	}
	return job.CompletedAt.Sub(*job.StartedAt)
}

// runStats prints job counts per state and queue depths.
func runStats(ctx *commandContext, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: ranking-admin stats")
	}

	db, redisClient, err := connectInfra(ctx.Logger, &ctx.Config)
	if err != nil {
		return err
	}
	defer closeInfra(ctx.Logger, db, redisClient)

	jobs := data.NewJobRepo(db)
	stats, err := jobs.Stats(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("job stats: %w", err)
	}

	q := queue.New(redisClient, queue.Options{
		KeyPrefix:         ctx.Config.Queue.KeyPrefix,
		VisibilityTimeout: ctx.Config.Queue.VisibilityTimeout,
	})
	pending, processing, err := q.Depth(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("queue depth: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "jobs pending\t%d\n", stats.Pending)
	fmt.Fprintf(w, "jobs in_progress\t%d\n", stats.InProgress)
	fmt.Fprintf(w, "jobs completed\t%d\n", stats.Completed)
	fmt.Fprintf(w, "jobs failed\t%d\n", stats.Failed)
	fmt.Fprintf(w, "queue pending\t%d\n", pending)
	fmt.Fprintf(w, "queue processing\t%d\n", processing)
	return w.Flush()
}

// runRequeue resets a failed job to pending and pushes it back onto the queue.
func runRequeue(ctx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ranking-admin requeue <job-id>")
	}
	jobID := args[0]

	db, redisClient, err := connectInfra(ctx.Logger, &ctx.Config)
	if err != nil {
		return err
	}
	defer closeInfra(ctx.Logger, db, redisClient)

	jobs := data.NewJobRepo(db)
	job, err := jobs.GetByID(ctx.Ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job.Status != model.JobStatusFailed {
		return fmt.Errorf("job %s is %s, only failed jobs can be requeued", jobID, job.Status)
	}

	if err := jobs.MarkPending(ctx.Ctx, jobID, "requeued by operator"); err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}

	q := queue.New(redisClient, queue.Options{
		KeyPrefix:         ctx.Config.Queue.KeyPrefix,
		VisibilityTimeout: ctx.Config.Queue.VisibilityTimeout,
	})
	if err := q.Enqueue(ctx.Ctx, job); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	ctx.Logger.InfoContext(ctx.Ctx, "job requeued", "job_id", jobID, "item_ref", job.ItemRef)
	return nil
}

// runMigrate applies database migrations.
func runMigrate(ctx *commandContext, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: ranking-admin migrate")
	}

	db, _, err := connectInfraWithOptions(&connectInfraOptions{
		Logger: ctx.Logger,
		Config: &ctx.Config,
		WantDB: true,
	})
	if err != nil {
		return err
	}
	defer closeInfra(ctx.Logger, db, nil)

	migrateCtx, cancel := context.WithTimeout(ctx.Ctx, defaultMigrationTimeout)
	defer cancel()

	if err := migrate.Run(migrateCtx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	ctx.Logger.InfoContext(ctx.Ctx, "migrations applied")
	return nil
}

// runDBSeed applies migrations and seeds development data.
func runDBSeed(ctx *commandContext, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: ranking-admin db-seed")
	}

	db, _, err := connectInfraWithOptions(&connectInfraOptions{
		Logger: ctx.Logger,
		Config: &ctx.Config,
		WantDB: true,
	})
	if err != nil {
		return err
	}
	defer closeInfra(ctx.Logger, db, nil)

	migrateCtx, cancel := context.WithTimeout(ctx.Ctx, defaultMigrationTimeout)
	defer cancel()

	if err := migrate.Run(migrateCtx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return devseed.Run(ctx.Ctx, devseed.NewServices(db), ctx.Logger)
}
