package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"crypto_tycoon/backtest"
	"crypto_tycoon/internal/app"
	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/infra"
	"crypto_tycoon/internal/server"

	_ "net/http/pprof" // For pprof profiling
)

var (
	configPath string
	addr       string
	seed       int64
	logLevel   string
)

func main() {
	tycoon := cli.NewApp()
	tycoon.Name = infra.AppName
	tycoon.Version = "1.0.0"
	tycoon.Usage = "serve the crypto tycoon trading sandbox over websocket"
	tycoon.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address, overrides server.addr",
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "market seed for every session, overrides game.seed",
			Destination: &seed,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "debug, info, warn or error",
			Destination: &logLevel,
		},
	}
	tycoon.Action = serve
	tycoon.Commands = []*cli.Command{
		{
			Name:      "replay",
			Usage:     "rebuild journaled sessions and print the final views as JSON",
			ArgsUsage: "[session-id]",
			Action:    replay,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tycoon.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func bootstrap(c *cli.Context) (*app.Bootstrap, error) {
	b := app.NewBootstrap()
	err := b.Initialize(app.Overrides{
		ConfigPath: configPath,
		Addr:       addr,
		Seed:       seed,
		SeedSet:    c.IsSet("seed"),
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrapping failed: %w", err)
	}
	return b, nil
}

func serve(c *cli.Context) error {
	b, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer b.Close()

	cfg := b.Config
	if cfg.Server.PprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", cfg.Server.PprofAddr))
			if err := http.ListenAndServe(cfg.Server.PprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	infra.PrintBanner(os.Stdout, cfg)

	srv := server.New(b.ServerOptions(), b.EventStore)
	slog.InfoContext(c.Context, "✨ Crypto Tycoon ready. Press Ctrl+C to exit.",
		slog.String("addr", cfg.Server.Addr))

	if err := srv.ListenAndServe(c.Context); err != nil {
		return err
	}
	slog.Info("👋 Shut down gracefully")
	return nil
}

func replay(c *cli.Context) error {
	b, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer b.Close()

	replayer := backtest.NewReplayer(b.EventStore, b.SessionConfig())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if id := c.Args().First(); id != "" {
		session, err := replayer.Replay(c.Context, id)
		if err != nil {
			return err
		}
		counts, err := replayer.Count(c.Context, id)
		if err != nil {
			return err
		}
		events := make(map[string]int, len(counts))
		for typ, n := range counts {
			events[typ.String()] = n
		}
		return enc.Encode(struct {
			View   engine.View    `json:"view"`
			Events map[string]int `json:"events"`
		}{session.View(), events})
	}

	views, err := replayer.ReplayAll(c.Context)
	if err != nil {
		return err
	}
	return enc.Encode(views)
}
