package main

import (
	"context"
	"flag"
	"fmt"
	"sync"

	"nspec/internal/anchor"
	"nspec/internal/fitter/continuum"
	"nspec/internal/logging"
	"nspec/internal/shutdown"
	"nspec/internal/specio"
	"nspec/internal/spectrum/model"
	"nspec/pkg/rworker"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	Concurrency int `env:"NSPEC_CONCURRENCY,default=4"`
}

// profile is the fit configuration loaded from a TOML file. Picks are
// the wavelengths at which continuum anchors are placed.
type profile struct {
	LowReject     float64   `toml:"low_reject"`
	HighReject    float64   `toml:"high_reject"`
	MaxIterations int       `toml:"max_iterations"`
	MedianWindow  float64   `toml:"median_window"`
	Picks         []float64 `toml:"picks"`
}

func defaultProfile() profile {
	return profile{
		LowReject:     3.0,
		HighReject:    0.0,
		MaxIterations: 5,
		MedianWindow:  10.0,
	}
}

func main() {
	profilePath := flag.String("profile", "", "path to a TOML fit profile")
	flag.Parse()

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)

	if err := run(ctx, *profilePath, flag.Args()); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, profilePath string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input spectra given")
	}

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	prof := defaultProfile()
	if len(profilePath) > 0 {
		if _, err := toml.DecodeFile(profilePath, &prof); err != nil {
			return fmt.Errorf("decoding profile %s: %w", profilePath, err)
		}
	}
	if len(prof.Picks) < 2 {
		return fmt.Errorf("profile must define at least two picks")
	}

	var wg sync.WaitGroup
	rate := make(chan struct{}, cfg.Concurrency)
	errCh := make(chan error, 1)
	for _, path := range paths {
		path := path
		rworker.Job(&wg, func() error {
			return normalizeFile(ctx, prof, path)
		}, rate, errCh)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func normalizeFile(ctx context.Context, prof profile, path string) error {
	logger := logging.FromContext(ctx)

	sp, err := specio.Load(path)
	if err != nil {
		return err
	}

	anchors := make([]model.Anchor, 0, len(prof.Picks))
	for _, x := range prof.Picks {
		anchors = append(anchors, anchor.Pick(sp, x, prof.MedianWindow))
	}

	f, err := continuum.New(
		continuum.WithLowReject(prof.LowReject),
		continuum.WithHighReject(prof.HighReject),
		continuum.WithMaxIterations(prof.MaxIterations),
	)
	if err != nil {
		return err
	}

	curve, report, err := f.Fit(anchors, sp.Wavelength)
	if err != nil {
		return fmt.Errorf("fitting %s: %w", path, err)
	}

	normalized := make([]float64, sp.Len())
	for i := range normalized {
		normalized[i] = sp.Flux[i] / curve[i]
	}

	out := specio.OutputPath(path)
	if err := specio.Save(out, sp.Wavelength, normalized); err != nil {
		return err
	}

	logger.Infof(
		"%s: %d anchors kept, %d rejected in %d iterations, wrote %s",
		path, report.Kept, report.Rejected, report.Iterations, out,
	)
	return nil
}
