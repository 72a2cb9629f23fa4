package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/daily"
	"github.com/babelforce/rtvi-go/daily/sidecar"
	"github.com/babelforce/rtvi-go/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("client failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	args := initCLI()

	cfg, err := config.Load(args.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	args.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := initLogger(cfg.Log)

	creds, err := args.readCredentials()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	params, err := daily.DecodeConnectionParams(creds)
	if err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client, err := sidecar.Dial(ctx, sidecar.Config{
		URL:            cfg.Sidecar.URL,
		ConnectTimeout: cfg.Sidecar.ConnectTimeout,
		RequestTimeout: cfg.Sidecar.RequestTimeout,
		PingInterval:   cfg.Sidecar.PingInterval,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	tr := daily.NewTransport(
		client,
		daily.WithLogger(log),
		daily.WithDelegate(newLogDelegate(log)),
		daily.WithRequestTimeout(cfg.Sidecar.RequestTimeout),
		daily.WithAudioLevelInterval(cfg.Client.AudioLevelInterval),
		daily.WithLocalSpeakingDetection(cfg.Speaking.Local),
		daily.WithSpeakingThresholds(cfg.Speaking.LocalThreshold, cfg.Speaking.BotThreshold),
		daily.WithSilenceDelay(cfg.Speaking.SilenceDelay),
	)
	defer tr.Release()

	tr.Initialize(rtvi.ClientOptions{
		EnableMic:      cfg.Client.EnableMic,
		EnableCam:      cfg.Client.EnableCam,
		ConnectTimeout: cfg.Client.ConnectTimeout,
	})

	tr.OnMessage(func(msg *rtvi.MessageInbound) {
		log.Info("rtvi message", slog.String("type", msg.Type), slog.String("id", msg.ID))
		if msg.Type == rtvi.MessageTypeBotReady {
			tr.SetState(rtvi.TransportStateReady)
		}
	})

	if err := tr.InitDevices(ctx); err != nil {
		return fmt.Errorf("init devices: %w", err)
	}
	if err := tr.Connect(ctx, params); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	var timeout <-chan time.Time
	if args.duration > 0 {
		timeout = time.After(args.duration)
	}

	select {
	case <-ctx.Done():
		log.Info("interrupted")
	case <-timeout:
		log.Info("duration elapsed", slog.Duration("duration", args.duration))
	case <-client.Done():
		return errors.New("sidecar connection lost")
	}

	leaveCtx, cancel := context.WithTimeout(context.Background(), cfg.Sidecar.RequestTimeout)
	defer cancel()
	if err := tr.Disconnect(leaveCtx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	// give the sidecar a moment to report the left call state
	leftCtx, cancelLeft := context.WithTimeout(context.Background(), time.Second)
	defer cancelLeft()
	if _, err := tr.WaitState(leftCtx, func(s rtvi.TransportState) bool {
		return s == rtvi.TransportStateDisconnected
	}); err != nil {
		log.Warn("call did not report left", slog.String("state", tr.State().String()))
	}
	return nil
}

func serveMetrics(cfg config.MetricsConfig, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("serving metrics", slog.String("addr", cfg.Addr), slog.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", slog.Any("err", err))
		}
	}()

	return srv
}
