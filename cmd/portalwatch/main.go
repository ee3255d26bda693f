package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/julioseixas/portalwatch/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/portalwatch/config.toml)")
	poll := flag.Duration("poll", 0, "queue refresh interval, e.g. 3s (optional)")
	screen := flag.String("screen", "", "screen to open: consultation, emergency or telemedicine")
	headless := flag.Bool("headless", false, "poll without the terminal UI and log alerts")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "portalwatch: load .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:   *configPath,
		PollInterval: *poll,
		Screen:       *screen,
		Headless:     *headless,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "portalwatch: %v\n", err)
		return 1
	}
	return 0
}
