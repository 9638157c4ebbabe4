package infra

import (
	"fmt"
	"io"
	"strconv"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
)

// PrintBanner displays the startup banner. A fixed seed is highlighted
// because every session will then see the same market.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorGreen
	seed := "random per session"
	if cfg.Game.Seed != 0 {
		color = ColorYellow
		seed = strconv.FormatInt(cfg.Game.Seed, 10)
	}

	journal := cfg.Journal.DSN
	if journal == "" {
		journal = "in-memory"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                  Crypto Tycoon Sandbox                  #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   ADDR:    %-44s #%s\n", color, cfg.Server.Addr, ColorReset)
	fmt.Fprintf(w, "%s#   SEED:    %-44s #%s\n", color, seed, ColorReset)
	fmt.Fprintf(w, "%s#   JOURNAL: %-44s #%s\n", color, journal, ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}
