// The processor daemon receives binary sensor packets over UDP, TCP,
// MQTT or WebSocket and runs them through the VAD stage.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"sensorbridge/internal/config"
)

func main() {
	cfg := config.DefaultProcessor()

	fs := pflag.NewFlagSet("processor", pflag.ContinueOnError)
	transport := config.ProcessorFlags(fs, cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Normalize(*transport); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := NewApp(cfg)
	if err := app.Start(); err != nil {
		log.Error("failed to start", "err", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received exit signal", "signal", sig)
	case err := <-app.Err():
		log.Error("receiver failed", "err", err)
		app.Stop()
		os.Exit(1)
	}

	app.Stop()
}
