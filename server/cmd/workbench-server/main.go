package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Covcloud-LLC/rating-workbench/core/logx"
	"github.com/Covcloud-LLC/rating-workbench/core/secret"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/api"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/config"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/inflight"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/metrics"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/server"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.ServerConfig
	// Resolve config with precedence: defaults < file < env < args
	cfg.SetDefaults()
	cfg.ApplyEnv() // allows CONFIG_FILE from env
	if p, ok := config.ConfigFileFromArgs(os.Args[1:]); ok {
		cfg.ConfigFile = p
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	cfg.ApplyEnv()
	cfg.BindFlagsFromCurrent(flag.CommandLine)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "workbench-server version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("workbench-server version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}
	cfg.Finalize()

	logx.SetFormat(cfg.LogFormat)
	logx.Configure(cfg.LogLevel)
	metrics.SetServerBuildInfo(version, buildSHA, buildDate)

	instanceID := uuid.New()
	var store serverstate.Store
	var redisStore *serverstate.RedisStore
	if cfg.RedisAddr != "" {
		rs, err := serverstate.NewRedisStore(context.Background(), cfg.RedisAddr, instanceID.String())
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", secret.MaskURL(cfg.RedisAddr)).Msg("connect redis")
		}
		defer func() { _ = rs.Close() }()
		store = rs
		redisStore = rs
		logx.Log.Info().Str("addr", secret.MaskURL(cfg.RedisAddr)).Str("key", rs.Key()).Msg("using redis state store")
	}
	state := serverstate.NewTracker(store)
	counter := inflight.New(metrics.SetInflight)
	reg := server.NewRegistry()

	handler := server.New(cfg, server.Deps{
		State:      state,
		Inflight:   counter,
		Registry:   reg,
		InstanceID: instanceID,
		Build:      api.BuildInfo{Version: version, BuildSHA: buildSHA, BuildDate: buildDate},
	})
	srv := &http.Server{Addr: cfg.ListenAddr(), Handler: handler}
	var metricsSrv *http.Server
	if !cfg.SharedMetrics() {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: server.MetricsHandler(reg)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if redisStore != nil {
		go redisStore.KeepAlive(ctx, 0)
	}
	drainer := &server.Drainer{State: state, Inflight: counter, Timeout: cfg.DrainTimeout, Terminate: cancel}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			drainer.Signal(ctx)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logx.Log.Error().Err(err).Msg("server shutdown")
		}
	}()
	if metricsSrv != nil {
		go func() {
			<-ctx.Done()
			if err := metricsSrv.Shutdown(context.Background()); err != nil {
				logx.Log.Error().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	state.SetStatus(serverstate.StatusReady)
	logx.Log.Info().Int("port", cfg.Port).Str("version", version).Msg("server starting")
	if metricsSrv != nil {
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}
