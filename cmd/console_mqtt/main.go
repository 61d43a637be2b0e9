package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/relabs-tech/crop_monitor/internal/app"
	"github.com/relabs-tech/crop_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "crop_config.txt", "path to configuration file")
	flag.Parse()

	slog.Info("starting crop monitor console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
