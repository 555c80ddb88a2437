// Command ledger records income and expenses and prints reports over them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ledger/internal/cli"
)

const usage = `usage: ledger <command> [flags]

commands:
  add         record a transaction
  delete      remove every transaction with a given date, type and category
  list        list transactions with totals
  categories  show the known categories per type
  report      build a bar, line, waterfall, stacked or pie report
  watch       follow change notifications from other sessions

Run "ledger <command> -h" for the flags of a command.`

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stdout, usage)
		return errUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			fmt.Fprintln(stdout, usage)
			return nil
		}
		fmt.Fprintf(stdout, "unknown command %q\n\n%s\n", args[0], usage)
		return errUsage
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)

	env := &environment{cfg: cfg, logger: logger, stdin: stdin, stdout: stdout}
	if err := cmd(ctx, env, args[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		return err
	}
	return nil
}
