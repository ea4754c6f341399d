package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/store"
)

var indexJobsCmd = &cobra.Command{
	Use:   "index-jobs",
	Short: "Reindex published jobs into the vector index and skill graph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIndexJobs(cmd)
	},
}

func init() {
	indexJobsCmd.Flags().Int("batch", 100, "page size when listing jobs")
	indexJobsCmd.Flags().String("project", "", "restrict to a single project")
}

func runIndexJobs(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	d, err := buildDeps(ctx, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	engine, err := d.matchEngine()
	if err != nil {
		return err
	}

	batch, _ := cmd.Flags().GetInt("batch")
	if batch <= 0 {
		batch = 100
	}
	project, _ := cmd.Flags().GetString("project")

	var indexed, failed, total int
	for offset := 0; ; offset += batch {
		jobs, err := d.jobs.ListJobs(ctx, store.JobFilter{
			Status:    domain.StatusPublished,
			ProjectID: project,
			Limit:     batch,
			Offset:    offset,
		})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			break
		}
		for _, job := range jobs {
			total++
			if engine.IndexJob(ctx, job) {
				indexed++
			} else {
				failed++
				logger.Warn("job not indexed", "job_id", job.ID)
			}
			if ctx.Err() != nil {
				logger.Info("interrupted", "indexed", indexed, "failed", failed)
				return ctx.Err()
			}
		}
		if len(jobs) < batch {
			break
		}
	}

	logger.Info("reindex complete", "total", total, "indexed", indexed, "failed", failed)
	return nil
}
