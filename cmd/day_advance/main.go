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
	set := flag.String("set", "", "set elapsed days to this value instead of adding one")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if err := app.RunDayAdvance(*set); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
