// The bridge daemon receives binary sensor datagrams over UDP and
// forwards their metadata to an MQTT broker.
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
	cfg := config.DefaultBridge()

	fs := pflag.NewFlagSet("bridge", pflag.ContinueOnError)
	config.BridgeFlags(fs, cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
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
