package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	offlinecache "github.com/offline-cache/offline-cache"
	"github.com/offline-cache/offline-cache/fetcher"
	"github.com/offline-cache/offline-cache/notify"
	"github.com/offline-cache/offline-cache/store"
	"github.com/offline-cache/offline-cache/tasks"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type environment struct {
	Port       int    `env:"PORT"`
	Origin     string `env:"ORIGIN"`
	DBFilename string `env:"DB_FILE"`
	ConfigFile string `env:"CONFIG_FILE"`
}

var (
	// CLI flags; environment variables provide their defaults
	portFlag           int
	originFlag         string
	dbFilenameFlag     string
	configFileFlag     string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func main() {
	envCfg := environment{
		Port:       8080,
		DBFilename: "cache.db",
		ConfigFile: "offline-cache.yml",
	}
	if err := env.Parse(&envCfg); err != nil {
		log.Fatal().Err(err).Msg("Cannot parse environment")
	}

	flag.StringVar(&originFlag, "origin", envCfg.Origin, "Origin URL to front")
	flag.IntVar(&portFlag, "port", envCfg.Port, "Port to listen on")
	flag.StringVar(&dbFilenameFlag, "db", envCfg.DBFilename, "Cache DB file name (use 'memory' for in-memory db)")
	flag.StringVar(&configFileFlag, "config", envCfg.ConfigFile, "Configuration file")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")
	flag.Parse()

	if version == "" {
		version = "DEV"
	}

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	config, err := getConfig(configFileFlag)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Str("file", configFileFlag).Msg("Cannot read configuration")
	}

	if originFlag == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(originFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	dbFilename := dbFilenameFlag
	if dbFilename == "memory" {
		dbFilename = ""
	}
	provider := store.NewSQLite(dbFilename)
	origin := fetcher.NewOrigin(originURL)

	engine := offlinecache.New(offlinecache.Config{
		Store:       provider,
		Fetcher:     origin,
		Generation:  config.Generation,
		APIPrefixes: config.APIPrefixes,
		Precache:    config.Precache,
		OfflinePath: config.OfflinePath,
		RootPath:    config.RootPath,
		Logger:      &log.Logger,
	})

	sink := notify.NewLogSink(&log.Logger)
	dispatcher := notify.NewDispatcher(sink, nil, &log.Logger)
	coordinator := tasks.NewCoordinator(tasks.Config{
		Store:         provider,
		Fetcher:       origin,
		Sink:          sink,
		SyncNamespace: config.Generation.Sync,
		APINamespace:  config.Generation.API,
		SyncEndpoint:  config.Tasks.SyncEndpoint,
		WeatherPath:   config.Tasks.WeatherPath,
		Schedule:      config.Tasks.Schedule,
		Logger:        &log.Logger,
	})

	// install is best-effort at startup: a cold origin should not keep the
	// proxy from serving, the assets get cached on first use anyway
	if err := engine.Install(context.Background()); err != nil {
		log.Error().Err(err).Msg("Precache installation failed")
	}

	// cleanup of stale generations must be scheduled before serving starts,
	// but serving does not wait for it to complete
	go func() {
		if err := engine.Activate(); err != nil {
			log.Error().Err(err).Msg("Activation failed")
		}
	}()

	if err := coordinator.Start(); err != nil {
		log.Fatal().Err(err).Msg("Could not schedule periodic tasks")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", portFlag),
		Handler: engine.Router(dispatcher, coordinator),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Msgf("Intercepting port %v for %s", portFlag, originURL.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	coordinator.Stop()
	engine.Wait()
}
