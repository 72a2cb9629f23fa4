package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/babelforce/rtvi-go/internal/config"
)

type cliArgs struct {
	configPath  string
	credentials string
	sidecarURL  string
	logLevel    string
	metricsAddr string
	enableCam   bool
	duration    time.Duration
}

// apply lets explicitly set flags win over the config file.
func (a *cliArgs) apply(cfg *config.AppConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sidecar-url":
			cfg.Sidecar.URL = a.sidecarURL
		case "log-level":
			cfg.Log.Level = a.logLevel
		case "metrics-addr":
			cfg.Metrics.Addr = a.metricsAddr
		case "enable-cam":
			cfg.Client.EnableCam = a.enableCam
		}
	})
}

func (a *cliArgs) readCredentials() ([]byte, error) {
	if a.credentials == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(a.credentials)
}

func initCLI() *cliArgs {
	args := cliArgs{
		credentials: "-",
		logLevel:    "info",
	}
	flag.StringVar(&args.configPath, "config", args.configPath, "path of the YAML config file")
	flag.StringVar(&args.credentials, "credentials", args.credentials, "JSON file with room_url/url/dailyRoom and token/dailyToken, - for stdin")
	flag.StringVar(&args.sidecarURL, "sidecar-url", args.sidecarURL, "websocket url of the call client sidecar")
	flag.StringVar(&args.logLevel, "log-level", args.logLevel, "log level")
	flag.StringVar(&args.metricsAddr, "metrics-addr", args.metricsAddr, "listen address of the prometheus endpoint")
	flag.BoolVar(&args.enableCam, "enable-cam", args.enableCam, "join with the camera enabled")
	flag.DurationVar(&args.duration, "duration", args.duration, "leave the call after this duration, 0 stays until interrupted")
	flag.Parse()
	return &args
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    cfg.NoColor,
	})))

	return slog.Default()
}
