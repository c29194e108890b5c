// Command bezierde fits a Bézier curve to a set of 2D points read from
// an SVG polyline, using parallel Differential Evolution, and writes
// the fitted curve back out as SVG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/allanhasegawa/pdebc/internal/runner"
	"github.com/allanhasegawa/pdebc/internal/telemetry"
	"github.com/allanhasegawa/pdebc/pkg/config"
	"github.com/allanhasegawa/pdebc/pkg/de"
	"github.com/allanhasegawa/pdebc/pkg/render"
	"github.com/allanhasegawa/pdebc/pkg/svgpoints"
)

func main() {
	spec, stress := parseFlags()

	if spec.ConfigFile != "" {
		loaded, err := config.LoadFromFile(spec.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		loaded.InputFile = spec.InputFile
		loaded.OutputFile = spec.OutputFile
		spec = loaded
	}

	if err := spec.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.New(spec.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("received interrupt signal, shutting down gracefully")
		cancel()
	}()

	if stress {
		err = runStress(ctx, spec, logger)
	} else {
		err = runOnce(ctx, spec, logger)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Operation canceled by user")
			os.Exit(130)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (config.RunSpec, bool) {
	spec := config.Default()

	var stress bool

	flag.StringVar(&spec.InputFile, "d", "", "Data file: SVG polyline of points to fit (required)")
	flag.IntVar(&spec.NCP, "b", spec.NCP, "Number of Bézier control points (required)")
	flag.IntVar(&spec.Workers, "p", spec.Workers, "Number of parallel workers (required)")
	flag.IntVar(&spec.Generations, "g", spec.Generations, "Generations per control point (required)")
	flag.IntVar(&spec.Population, "n", spec.Population, "Population size (required)")
	flag.Float64Var(&spec.F, "f", spec.F, "DE mutation weight F (required)")
	flag.Float64Var(&spec.CR, "c", spec.CR, "DE crossover rate CR (required)")
	flag.BoolVar(&stress, "s", false, "Repeat the fit in a loop until interrupted, logging each round")

	flag.StringVar(&spec.OutputFile, "o", spec.OutputFile, "Output SVG file for the fitted curve")
	flag.StringVar(&spec.ConfigFile, "config", "", "Configuration file (JSON)")
	flag.IntVar(&spec.Rounds, "rounds", spec.Rounds, "Number of full passes over all control points")
	flag.Float64Var(&spec.DomainLimit, "domain-limit", spec.DomainLimit, "Initial sampling domain, [-limit, limit]")
	flag.Float64Var(&spec.MigrationProbability, "migration", spec.MigrationProbability, "Probability of inter-worker migration per generation")
	flag.Int64Var(&spec.Seed, "seed", spec.Seed, "RNG seed (0 = derive from current time)")
	flag.IntVar(&spec.ConvergenceStops, "convergence-stops", spec.ConvergenceStops, "Stop a control point's search after N stagnant generations (0=disabled)")
	flag.Float64Var(&spec.ConvergenceTolerance, "convergence-tolerance", spec.ConvergenceTolerance, "Error-improvement tolerance for convergence detection")
	flag.BoolVar(&spec.Verbose, "verbose", spec.Verbose, "Verbose logging")
	flag.BoolVar(&spec.ShowProgress, "progress", spec.ShowProgress, "Log progress every generation")

	seen := map[string]bool{"d": false, "b": false, "p": false, "g": false, "n": false, "f": false, "c": false}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bezierde - Parallel Differential Evolution Bézier curve fitter\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -d <data_file> -b <n_cp> -p <workers> -g <generations> -n <population> -f <F> -c <CR> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if _, ok := seen[f.Name]; ok {
			seen[f.Name] = true
		}
	})

	var missing []string
	for name, ok := range seen {
		if !ok {
			missing = append(missing, "-"+name)
		}
	}

	if len(missing) > 0 {
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\nMissing required flag(s): %v\n", missing)
		os.Exit(2)
	}

	return spec, stress
}

func runOnce(ctx context.Context, spec config.RunSpec, logger *zap.Logger) error {
	start := time.Now()

	result, err := fitOnce(ctx, spec, logger)
	if err != nil {
		return err
	}

	logger.Info("fit complete",
		zap.Duration("elapsed", time.Since(start)),
	)

	return writeOutput(spec, result)
}

func runStress(ctx context.Context, spec config.RunSpec, logger *zap.Logger) error {
	for round := 0; ; round++ {
		start := time.Now()

		result, err := fitOnce(ctx, spec, logger)
		if err != nil {
			return err
		}

		logger.Info("stress round complete",
			zap.Int("round", round),
			zap.Duration("elapsed", time.Since(start)),
		)

		if err := writeOutput(spec, result); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func fitOnce(ctx context.Context, spec config.RunSpec, logger *zap.Logger) (runner.FitResult, error) {
	file, err := os.Open(spec.InputFile)
	if err != nil {
		return runner.FitResult{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	dataset, err := svgpoints.Parse(file)
	if err != nil {
		return runner.FitResult{}, fmt.Errorf("failed to parse input data: %w", err)
	}

	r, err := runner.New(spec, logger)
	if err != nil {
		return runner.FitResult{}, err
	}

	var progress runner.ProgressCallback
	if spec.ShowProgress {
		progress = func(round, cp, generation int, bestErr de.ErrorVector) {
			logger.Debug("generation complete",
				zap.Int("round", round),
				zap.Int("control_point", cp),
				zap.Int("generation", generation),
				zap.Float64("error_x", bestErr.X),
				zap.Float64("error_y", bestErr.Y),
			)
		}
	}

	return r.Fit(ctx, dataset, progress)
}

func writeOutput(spec config.RunSpec, result runner.FitResult) error {
	out, err := os.Create(spec.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	fmt.Fprintln(out, `<svg xmlns="http://www.w3.org/2000/svg">`)

	if err := render.WriteSVG(out, result.Evaluator, 200); err != nil {
		return fmt.Errorf("failed to render fitted curve: %w", err)
	}

	fmt.Fprintln(out, `</svg>`)

	return nil
}
