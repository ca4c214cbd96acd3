// Package main provides the bioqa CLI.
//
// Commands:
//
//	bioqa version
//	bioqa schema
//	bioqa init  -config model.json -out weights.safetensors
//	bioqa infer -c run.yaml -in questions.json -out answers.json [-beam-size N]
//	bioqa eval  -c run.yaml -in questions.json [-find-threshold 0.01] [-find-answer-count 10]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if errors.Is(err, errUsage) {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("bioqa failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "bioqa %s\n", version)
		return nil
	case "schema":
		return runSchema(stdout)
	case "init":
		return runInit(args[1:])
	case "infer":
		return runInfer(ctx, args[1:])
	case "eval":
		return runEval(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "bioqa %s - biomedical question answering\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  schema     Print the JSON schema of the model config")
	fmt.Fprintln(w, "  init       Write randomly initialized weights for a model config")
	fmt.Fprintln(w, "  infer      Answer a BioASQ question file")
	fmt.Fprintln(w, "  eval       Score predictions against BioASQ gold answers")
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
