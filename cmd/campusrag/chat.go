package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/chains"
)

func chatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long:  `Start an interactive session. Type "exit" or "quit" to leave and "reset" to clear the history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			engine, cleanup, err := a.chatEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				query := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(query) {
				case "":
					continue
				case "exit", "quit":
					return nil
				case "reset":
					engine.Reset()
					fmt.Fprintln(out, "History cleared")
					continue
				}

				answer, err := engine.Chat(ctx, query)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					if errors.Is(err, chains.ErrEmptyQuery) {
						continue
					}
					a.logger.Error("Chat failed", "error", err)
					fmt.Fprintln(out, "Error:", err)
					continue
				}
				fmt.Fprintf(out, "%s\n\n", answer)
			}
		},
	}
}
