// Command notegraphd is the notegraphd process entrypoint: a single `watch`
// subcommand that loads config, wires BuildCoordinator, NotesService, the
// HTTP front-end, and the editor-control listener together, and runs until
// SIGINT/SIGTERM or a fatal error, the notegraphd analogue of the teacher's
// cmd/lci/main.go (urfave/cli app, signal.Notify-driven graceful shutdown,
// os.Exit(1) on any fatal error).
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/notegraphd/internal/build"
	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/config"
	"github.com/standardbeagle/notegraphd/internal/diag"
	"github.com/standardbeagle/notegraphd/internal/editor"
	"github.com/standardbeagle/notegraphd/internal/httpapi"
	"github.com/standardbeagle/notegraphd/internal/notes"
	"github.com/standardbeagle/notegraphd/internal/pkgstore"
	"github.com/standardbeagle/notegraphd/internal/readiness"
	"github.com/standardbeagle/notegraphd/internal/world"
)

// packageIndexURL is spec.md §6's fixed wire endpoint for package metadata
// and tarballs; there is no config field for it because the original
// hardcodes the same host.
const packageIndexURL = "https://packages.typst.org/preview/index.json"

var logComponent = diag.Component("main")

func main() {
	app := &cli.App{
		Name:  "notegraphd",
		Usage: "live build-and-serving engine for a personal note graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path (defaults to the platform config directory)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "address the HTTP front-end listens on",
				Value: "127.0.0.1:8420",
			},
			&cli.StringFlag{
				Name:  "editor-addr",
				Usage: "address the editor-control listener listens on",
				Value: "127.0.0.1:8421",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "start the build coordinator, note service, and HTTP/editor front-ends",
				Action: watchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func watchCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath == "" {
		var err error
		configPath, err = config.Path()
		if err != nil {
			return cli.Exit(err, 1)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return cli.Exit(fmt.Errorf("load config: %w", err), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	ready := readiness.New()
	service := notes.New(cfg.BuildDirectory, ready, cancel)
	defer service.Close()

	res := &world.Resources{
		ProjectRoot: cfg.ProjectDirectory,
		Library:     &compiler.Library{Name: "notegraphd"},
		Book:        &compiler.FontBook{},
	}
	cache := world.NewSlotCache()
	pkgs := pkgstore.New(cfg.CacheDirectory, packageIndexURL)
	engine := compiler.SimpleEngine{}

	coord := build.New(cfg.ProjectDirectory, cfg.NotesDirectory, cfg.BuildDirectory, res, pkgs, cache, engine, service, cancel, cfg.WatchDebounceMs)
	if err := coord.Start(); err != nil {
		return cli.Exit(fmt.Errorf("start build coordinator: %w", err), 1)
	}
	defer coord.Stop()

	editorSrv, err := editor.Listen(c.String("editor-addr"), service)
	if err != nil {
		return cli.Exit(fmt.Errorf("start editor listener: %w", err), 1)
	}
	defer editorSrv.Close()

	httpSrv := &http.Server{
		Addr:    c.String("http-addr"),
		Handler: httpapi.NewServer(service, cfg.DefaultNote).Handler(),
	}
	httpErrCh := make(chan error, 1)
	go func() {
		ln, err := net.Listen("tcp", httpSrv.Addr)
		if err != nil {
			httpErrCh <- err
			return
		}
		logComponent.Logf("http front-end listening on %s", ln.Addr())
		httpErrCh <- httpSrv.Serve(ln)
	}()

	select {
	case <-runCtx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)

		if cause := context.Cause(runCtx); cause != nil && cause != context.Canceled {
			return cli.Exit(fmt.Errorf("fatal: %w", cause), 1)
		}
		return nil
	case err := <-httpErrCh:
		if err != nil && err != http.ErrServerClosed {
			return cli.Exit(fmt.Errorf("http front-end: %w", err), 1)
		}
		return nil
	}
}
