package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/documentloaders"
)

func crawlCmd(a *app) *cobra.Command {
	var (
		startURL string
		replace  bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the university website and store its sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := a.cfg.Website
			if startURL == "" {
				startURL = w.StartURL
			}

			loader, err := documentloaders.NewWeb(startURL,
				documentloaders.WithLogger(a.logger),
				documentloaders.WithWorkers(a.cfg.Workers),
				documentloaders.WithMaxPages(w.MaxPages),
				documentloaders.WithExcludeURLs(w.Exclude...),
				documentloaders.WithDownloadDir(w.DownloadDir),
			)
			if err != nil {
				return err
			}

			report, err := loader.Crawl(ctx)
			if err != nil {
				return err
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
				return fmt.Errorf("save sections: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored %d sections from %d pages (%d failed)\n",
				len(saved), len(report.Pages), len(report.Failed))
			for _, p := range report.Downloaded {
				fmt.Fprintf(out, "Downloaded %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startURL, "url", "", "Start URL (overrides website.start_url)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete previously stored sections of the crawled pages first")
	return cmd
}
