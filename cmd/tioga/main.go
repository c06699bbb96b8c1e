package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/tioga/internal/cli"
)

// main is the entrypoint for the tioga CLI.
func main() {
	// Use a minimal logger until the configured one replaces it.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	os.Exit(run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) int {
	cmd := cli.NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(stderr, exitErr.Error())
		return exitErr.Code
	}
	// Flag and argument errors come from cobra itself.
	fmt.Fprintln(stderr, err)
	return cli.ExitCommandError
}
