package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget-engine/internal/adapters/cli"
	"budget-engine/internal/app"
)

// Run starts the interactive loop. Each input line is a CLI command, with or
// without a leading slash; /new-budget opens a guided prompt. Run returns
// when the input ends or the user types /exit.
func Run(ctx context.Context, svc app.ApplicationService, in io.Reader, out io.Writer, actor string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Budget Engine")
	fmt.Fprintln(out, "Type a command such as /report 2026-01-01 2026-12-31, or /help for all commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		raw, readErr := reader.ReadString('\n')
		input := strings.TrimSpace(raw)

		if input != "" {
			tokens := strings.Fields(strings.TrimPrefix(input, "/"))
			if len(tokens) > 0 {
				cmd := strings.ToLower(tokens[0])
				switch cmd {
				case "exit", "quit", "e", "q":
					fmt.Fprintln(out, "Goodbye.")
					return nil
				case "new-budget":
					if len(tokens) < 2 {
						fmt.Fprintln(out, "Usage: /new-budget <account-code>")
						break
					}
					handleNewBudget(ctx, reader, out, svc, actor, strings.ToUpper(tokens[1]))
				default:
					tokens[0] = cmd
					if err := cli.Run(ctx, svc, tokens, actor, out); err != nil {
						printError(out, err)
					}
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return readErr
		}
	}
}

// printError shows only the first line of usage errors; /help prints the rest.
func printError(out io.Writer, err error) {
	msg := err.Error()
	if errors.Is(err, cli.ErrUsage) {
		msg, _, _ = strings.Cut(msg, "\n")
	}
	fmt.Fprintf(out, "Error: %s\n", msg)
}
