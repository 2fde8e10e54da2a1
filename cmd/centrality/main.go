package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/centrality-analyzer/pkg/analysis"
	"github.com/ritzau/centrality-analyzer/pkg/centrality"
	"github.com/ritzau/centrality-analyzer/pkg/config"
	"github.com/ritzau/centrality-analyzer/pkg/edges"
	"github.com/ritzau/centrality-analyzer/pkg/logging"
	"github.com/ritzau/centrality-analyzer/pkg/output"
	"github.com/ritzau/centrality-analyzer/pkg/watcher"
	"github.com/ritzau/centrality-analyzer/pkg/web"
)

const (
	debounceQuiet = 200 * time.Millisecond
	debounceMax   = 2 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.NewFlagSet("centrality")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: centrality [flags] [edges.csv]\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("expected at most one input file, got %d", flags.NArg())
	}
	if flags.NArg() == 1 {
		if err := flags.Set("input", flags.Arg(0)); err != nil {
			return err
		}
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	logging.SetLevel(logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt))
	if cfg.JSONLogs {
		logging.SetJSONOutput()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := edges.NewCSVSource(cfg.Input, edges.ReadOptions{
		Header:    cfg.Header,
		Delimiter: cfg.DelimiterRune(),
	})
	engine := centrality.NewEngine(centrality.WithWorkers(cfg.EffectiveWorkers()))
	runner := analysis.NewRunner(source, engine, output.NewReporter(os.Stdout), analysis.Options{
		Directed: cfg.Directed,
		TopK:     cfg.Top,
	})

	if !cfg.WebMode && !cfg.Watch {
		_, err := runner.Run(ctx, "initial")
		return err
	}
	return serve(ctx, cfg, runner)
}

// serve runs the long-lived modes: the web server, the file watcher, or both
func serve(ctx context.Context, cfg *config.Config, runner *analysis.Runner) error {
	grp, gctx := errgroup.WithContext(ctx)

	if cfg.WebMode {
		server := web.NewServer()
		runner.SetObserver(server)
		grp.Go(func() error {
			return server.Start(gctx, cfg.Port)
		})
	}

	grp.Go(func() error {
		// A failed first run is not fatal here; a later change may fix the input
		if _, err := runner.Run(gctx, "initial"); err != nil && gctx.Err() == nil {
			logging.Error("initial analysis failed", "error", err)
		}

		if !cfg.Watch {
			<-gctx.Done()
			return nil
		}

		fw, err := watcher.NewFileWatcher(cfg.Input)
		if err != nil {
			return err
		}
		if err := fw.Start(gctx); err != nil {
			return err
		}
		debouncer := watcher.NewDebouncer(fw.Events(), debounceQuiet, debounceMax)
		debouncer.Start(gctx)

		runner.Watch(gctx, debouncer.Output())
		return nil
	})

	err := grp.Wait()
	if ctx.Err() != nil {
		logging.Info("shutting down")
		return nil
	}
	return err
}
