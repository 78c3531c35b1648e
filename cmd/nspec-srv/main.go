package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"nspec/internal/buildinfo"
	nspec "nspec/internal/config"
	"nspec/internal/fit"
	"nspec/internal/ingest"
	"nspec/internal/logging"
	"nspec/internal/normalize"
	"nspec/internal/obs"
	"nspec/internal/pick"
	"nspec/internal/server"
	"nspec/internal/setup"
	"nspec/internal/shutdown"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	config := nspec.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	shutdownCh := make(chan error, 2)
	sessions, err := env.ProvideSessions()(shutdownCh)
	if err != nil {
		return fmt.Errorf("session provider function error: %w", err)
	}
	if err := sessions.Run(ctx); err != nil {
		return fmt.Errorf("sessions.Run: %w", err)
	}
	defer sessions.Stop()

	if err := obs.RegisterViews(); err != nil {
		return fmt.Errorf("obs.RegisterViews: %w", err)
	}
	exporter, err := ocprom.NewExporter(ocprom.Options{Namespace: "nspec"})
	if err != nil {
		return fmt.Errorf("prometheus exporter: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	ingestHandler, err := ingest.NewHandler(&config.Ingest, sessions)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}
	pickHandler, err := pick.NewHandler(&config.Pick, sessions)
	if err != nil {
		return fmt.Errorf("pick.NewHandler: %w", err)
	}
	fitHandler, err := fit.NewHandler(&config.Fit, sessions)
	if err != nil {
		return fmt.Errorf("fit.NewHandler: %w", err)
	}
	normalizeHandler, err := normalize.NewHandler(&config.Normalize, sessions)
	if err != nil {
		return fmt.Errorf("normalize.NewHandler: %w", err)
	}

	mux.Handle("/spectrum", ingestHandler)
	mux.Handle("/pick", pickHandler)
	mux.Handle("/fit", fitHandler)
	mux.Handle("/normalize", normalizeHandler)
	mux.Handle("/metrics", exporter)
	mux.Handle("/health", server.HandleHealth(ctx))

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
