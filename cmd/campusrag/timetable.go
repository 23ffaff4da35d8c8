package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/timetable"
)

var errNoGroups = errors.New("no timetable groups configured")

func timetableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timetable [group...]",
		Short: "Scrape group timetables and store their lessons",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groups := args
			if len(groups) == 0 {
				groups = a.cfg.Timetable.Groups
			}
			if len(groups) == 0 {
				return errNoGroups
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			scraper := timetable.NewScraper(
				timetable.WithURLTemplate(a.cfg.Timetable.URLTemplate),
				timetable.WithLogger(a.logger),
			)

			var failed int
			for _, group := range groups {
				lessons, err := scraper.Fetch(ctx, group)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					a.logger.Error("Failed to fetch timetable", "group", group, "error", err)
					failed++
					continue
				}
				if err := s.SaveLessons(ctx, group, lessons); err != nil {
					return fmt.Errorf("save lessons of %s: %w", group, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %s: %d lessons\n", group, len(lessons))
			}
			if failed == len(groups) {
				return fmt.Errorf("all %d timetable fetches failed", failed)
			}
			return nil
		},
	}
}
