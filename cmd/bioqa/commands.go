package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/bioasq"
	"github.com/born-ml/bioqa/internal/config"
	"github.com/born-ml/bioqa/internal/inference"
	"github.com/born-ml/bioqa/internal/pointer"
)

func runSchema(stdout io.Writer) error {
	schema, err := jsonschema.For[pointer.Config](nil)
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to the model config JSON")
	out := fs.String("out", "", "Path of the safetensors file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" || *out == "" {
		return fmt.Errorf("%w: init needs -config and -out", errUsage)
	}

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		return fmt.Errorf("read model config: %w", err)
	}
	model, err := pointer.CreateFromConfig(raw, nil, 0, cpu.New())
	if err != nil {
		return err
	}
	if err := model.Save(*out); err != nil {
		return err
	}

	slog.Info("weights written", "path", *out, "answer_layer", model.AnswerLayerType().String(),
		"parameters", len(model.Parameters()))
	return nil
}

// runFlags are the flags shared by infer and eval.
type runFlags struct {
	configPath string
	in         string
	beamSize   int
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "c", "./run.yaml", "Path to the run config")
	fs.StringVar(&f.in, "in", "", "Path to the BioASQ question file")
	fs.IntVar(&f.beamSize, "beam-size", 0, "Beam size used for decoding (overrides the run config)")
}

func (f *runFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.beamSize > 0 {
		cfg.BeamSize = f.beamSize
	}
	return cfg, nil
}

// predict loads the dataset and answers every question with a snippet.
func predict(ctx context.Context, app *app, path string) (*bioasq.Dataset, map[string]inference.Result, error) {
	dataset, err := bioasq.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if n, err := dataset.AssignIDs(); err != nil {
		return nil, nil, err
	} else if n > 0 {
		app.logger.Warn("assigned ids to questions without one", "count", n)
	}

	results, err := app.inferrer.Predict(ctx, dataset.InferenceQuestions())
	if err != nil {
		return nil, nil, err
	}
	return dataset, results, nil
}

func runInfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	var flags runFlags
	flags.register(fs)
	out := fs.String("out", "", "Path to the output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.in == "" || *out == "" {
		return fmt.Errorf("%w: infer needs -in and -out", errUsage)
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}

	return withApp(cfg, func(app *app) error {
		dataset, results, err := predict(ctx, app, flags.in)
		if err != nil {
			return err
		}

		answered, err := bioasq.InsertAnswers(dataset, results, cfg.AnswerOptions())
		if err != nil {
			return err
		}
		if err := answered.Write(*out); err != nil {
			return err
		}

		app.logger.Info("answers written", "path", *out,
			"questions", len(dataset.Questions), "answered", len(answered.Questions))
		return nil
	})
}

func runEval(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	var flags runFlags
	flags.register(fs)
	step := fs.Float64("find-threshold", 0, "Search the list threshold with this step size")
	maxCount := fs.Int("find-answer-count", 0, "Search the list answer count up to this maximum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.in == "" {
		return fmt.Errorf("%w: eval needs -in", errUsage)
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}

	return withApp(cfg, func(app *app) error {
		dataset, results, err := predict(ctx, app, flags.in)
		if err != nil {
			return err
		}

		opts := cfg.AnswerOptions()
		if *step > 0 {
			threshold, list, err := bioasq.FindOptimalThreshold(dataset, results, float32(*step))
			if err != nil {
				return err
			}
			app.logger.Info("optimal list threshold", "threshold", threshold, "f1", list.F1)
			opts.ListThreshold = threshold
		}
		if *maxCount > 0 {
			count, list, err := bioasq.FindOptimalAnswerCount(dataset, results, *maxCount)
			if err != nil {
				return err
			}
			app.logger.Info("optimal list answer count", "count", count, "f1", list.F1)
			opts.ListCount = count
		}

		m, err := bioasq.Evaluate(dataset, results, opts)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "factoid questions: %d\n", m.Factoid.Questions)
		fmt.Fprintf(stdout, "  strict accuracy:  %.4f\n", m.Factoid.StrictAccuracy)
		fmt.Fprintf(stdout, "  lenient accuracy: %.4f\n", m.Factoid.LenientAccuracy)
		fmt.Fprintf(stdout, "  MRR:              %.4f\n", m.Factoid.MRR)
		if opts.ListCount > 0 {
			fmt.Fprintf(stdout, "list questions: %d (count %d)\n", m.List.Questions, opts.ListCount)
		} else {
			fmt.Fprintf(stdout, "list questions: %d (threshold %.2f)\n", m.List.Questions, opts.ListThreshold)
		}
		fmt.Fprintf(stdout, "  precision: %.4f\n", m.List.Precision)
		fmt.Fprintf(stdout, "  recall:    %.4f\n", m.List.Recall)
		fmt.Fprintf(stdout, "  F1:        %.4f\n", m.List.F1)
		return nil
	})
}

