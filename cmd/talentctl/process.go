package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the talentctl version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println(version)
	},
}

var processDocsCmd = &cobra.Command{
	Use:   "process-docs",
	Short: "Process unprocessed documents: extract text and optionally embed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProcessDocs(cmd)
	},
}

func init() {
	processDocsCmd.Flags().String("job", "", "restrict to documents attached to a single job")
	processDocsCmd.Flags().Bool("embeddings", true, "generate embeddings for extracted text")
}

func runProcessDocs(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	d, err := buildDeps(ctx, logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	jobID, _ := cmd.Flags().GetString("job")
	embeddings, _ := cmd.Flags().GetBool("embeddings")

	summary, err := d.ingestService().ProcessAll(ctx, jobID, embeddings)
	if err != nil {
		return err
	}

	logger.Info("processing complete",
		"total", summary.Total,
		"processed", summary.Processed,
		"failed", summary.Failed,
	)
	for _, r := range summary.Results {
		if !r.Success {
			logger.Warn("document failed", "document_id", r.DocumentID, "error", r.Error)
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Total)
	}
	return nil
}
