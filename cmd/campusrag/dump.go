package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/schema"
)

func dumpCmd(a *app) *cobra.Command {
	var (
		parserName string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "dump <file.pdf>",
		Short: "Parse one PDF and print its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			registry, err := a.registry()
			if err != nil {
				return err
			}

			var plugin schema.ParserPlugin
			if parserName != "" {
				plugin, err = registry.GetParser(parserName)
			} else {
				plugin, err = registry.GetParserForFile(path, nil)
			}
			if err != nil {
				return err
			}

			recs, err := plugin.Parse(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeChunks(w, recs)
		},
	}

	cmd.Flags().StringVar(&parserName, "parser", "", "Parser name (calendar, structured); detected from the file name when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func writeChunks(w io.Writer, recs []schema.ChunkRecord) error {
	for i, r := range recs {
		heading := r.Heading
		if heading == "" {
			heading = "NONE"
		}
		if _, err := fmt.Fprintf(w, "--- Chunk %d ---\nHEADING: %s\nCONTENT:\n%s\n\n\n", i+1, heading, r.Content); err != nil {
			return err
		}
	}
	return nil
}
