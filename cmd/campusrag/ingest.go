package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/documentloaders"
	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/store"
)

func ingestCmd(a *app) *cobra.Command {
	var (
		dir     string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [file.pdf...]",
		Short: "Parse PDF documents and store their chunks",
		Long: `Parse the configured PDF documents, or the files given as arguments,
and store the resulting chunks in the SQLite database. Documents that cannot
be read are logged and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, err := a.registry()
			if err != nil {
				return err
			}

			opts := []documentloaders.Option{
				documentloaders.WithLogger(a.logger),
				documentloaders.WithWorkers(a.cfg.Workers),
			}
			var loader *documentloaders.PDFLoader
			switch {
			case dir != "":
				loader = documentloaders.NewPDFDir(registry, dir, opts...)
			case len(args) > 0:
				jobs := make([]documentloaders.Job, 0, len(args))
				for _, p := range args {
					jobs = append(jobs, documentloaders.Job{Path: p})
				}
				loader = documentloaders.NewPDF(registry, jobs, opts...)
			default:
				loader = documentloaders.NewPDF(registry, a.cfg.Documents, opts...)
			}

			report, err := loader.Run(ctx)
			if err != nil {
				return err
			}
			for _, s := range report.Skipped {
				a.logger.Warn("Document skipped", "path", s.Path, "reason", s.Reason)
			}
			if len(report.Records) == 0 {
				return documentloaders.ErrNoRecords
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if replace {
				if err := deleteSources(ctx, s, report.Records); err != nil {
					return err
				}
			}
			saved, err := s.InsertChunks(ctx, report.Records)
			if err != nil {
				return fmt.Errorf("save chunks: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d chunks from %d documents (%d skipped)\n",
				len(saved), len(report.Parsed), len(report.Skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Parse every PDF below this directory instead of the configured list")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete previously stored chunks of the same documents first")
	return cmd
}

// deleteSources removes stored chunks of every source file present in recs.
func deleteSources(ctx context.Context, s *store.Store, recs []schema.ChunkRecord) error {
	seen := make(map[string]bool)
	for _, r := range recs {
		if seen[r.SourceFile] {
			continue
		}
		seen[r.SourceFile] = true
		if _, err := s.DeleteChunksBySource(ctx, r.SourceFile); err != nil {
			return fmt.Errorf("delete chunks of %s: %w", r.SourceFile, err)
		}
	}
	return nil
}
