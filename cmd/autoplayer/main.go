package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"crypto_tycoon/internal/autoplay"
	"crypto_tycoon/internal/infra"
	"crypto_tycoon/internal/protocol"
	"crypto_tycoon/internal/strategy"
)

var (
	configPath string
	url        string
	name       string
)

func main() {
	app := cli.NewApp()
	app.Name = "autoplayer"
	app.Version = "1.0.0"
	app.Usage = "play crypto tycoon with an SMA crossover strategy"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "server websocket url, overrides autoplayer.url",
			Destination: &url,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "player name, overrides autoplayer.name",
			Destination: &name,
		},
	}
	app.Action = run

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	path := configPath
	if path == "" {
		path = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err
	}
	slog.SetDefault(infra.NewLogger(cfg))

	ac := cfg.Autoplayer
	if url != "" {
		ac.URL = url
	}
	if name != "" {
		ac.Name = name
	}

	// Validate the windows once so the factory below cannot fail.
	if _, err := strategy.NewPortfolio(ac.ShortWindow, ac.LongWindow); err != nil {
		return fmt.Errorf("invalid strategy windows: %w", err)
	}
	player := autoplay.NewPlayer(ac.URL, ac.Name, ac.BuyFraction, func() strategy.Strategy {
		p, _ := strategy.NewPortfolio(ac.ShortWindow, ac.LongWindow)
		return p
	})

	worker := infra.NewBaseWSWorker[protocol.Message](player)
	player.SetSender(worker.WriteJSON)

	worker.Start(c.Context)
	slog.Info("🤖 Autoplayer started", slog.String("url", ac.URL), slog.String("name", ac.Name))

	<-c.Context.Done()
	worker.Stop()

	ticks, intents := player.Stats()
	slog.Info("👋 Autoplayer stopped", slog.Int("ticks", ticks), slog.Int("intents", intents))
	return nil
}
