package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/config"
	"webnotifier/internal/datastore"
	"webnotifier/internal/differ"
	"webnotifier/internal/logger"
	"webnotifier/internal/monitor"
	"webnotifier/internal/notifier"
	"webnotifier/internal/rslimiter"
	"webnotifier/internal/urlhandler"
)

var version = "dev"

func main() {
	flags := ParseFlags()

	if flags.ShowVersion {
		fmt.Printf("webnotifier %s\n", version)
		return
	}

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}
	zLogger.Info().Str("version", version).Msg("webnotifier starting")

	if dbDir := filepath.Dir(gCfg.StorageConfig.SQLiteDBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			zLogger.Fatal().Err(err).Str("directory", dbDir).Msg("Could not create database directory")
		}
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}
	zLogger.Info().Msg("Configuration validated successfully")

	targetURLs := collectTargetURLs(gCfg, flags, zLogger)
	if len(targetURLs) == 0 {
		zLogger.Fatal().Msg("No target URLs provided via -targets flag or config file")
	}

	historyStore, err := datastore.NewSQLitePageHistoryStore(&gCfg.StorageConfig, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize page history store")
	}
	defer func() {
		if err := historyStore.Close(); err != nil {
			zLogger.Error().Err(err).Msg("Failed to close page history store")
		}
	}()

	var emailNotifier *notifier.EmailNotifier
	if gCfg.NotificationConfig.Enabled() {
		emailNotifier, err = notifier.NewEmailNotifier(gCfg.NotificationConfig, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to initialize email notifier")
		}
	} else {
		zLogger.Warn().Msg("Email notifications are not configured, changes will only be logged")
	}
	notificationHelper := notifier.NewNotificationHelper(emailNotifier, gCfg.NotificationConfig, gCfg.DiffConfig.ContextLines, zLogger)

	contentDiffer, err := differ.NewContentDiffer(zLogger, &gCfg.DiffConfig)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize content differ")
	}

	httpTimeout := time.Duration(gCfg.MonitorConfig.HTTPTimeoutSeconds) * time.Second
	if gCfg.MonitorConfig.HTTPTimeoutSeconds <= 0 {
		httpTimeout = time.Duration(config.DefaultHTTPTimeoutSeconds) * time.Second
	}
	httpClient := &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: gCfg.MonitorConfig.InsecureSkipVerify},
		},
	}

	monitorService := monitor.NewService(
		&gCfg.MonitorConfig,
		historyStore,
		zLogger,
		notificationHelper,
		httpClient,
		contentDiffer,
	)

	resourceLimiter := startResourceLimiter(gCfg, zLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := monitorService.Start(targetURLs); err != nil {
		zLogger.Fatal().Err(err).Msg("Monitor service failed to start")
	}

	shutdown := make(chan struct{})
	if resourceLimiter != nil {
		var once sync.Once
		resourceLimiter.SetShutdownCallback(func() {
			once.Do(func() { close(shutdown) })
		})
	}

	select {
	case sig := <-sigChan:
		zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, initiating graceful shutdown")
	case <-shutdown:
		zLogger.Warn().Msg("Resource limiter requested shutdown")
	case <-monitorService.Done():
		zLogger.Info().Msg("Monitor service reached its cycle limit")
	}

	monitorService.Stop()
	if resourceLimiter != nil {
		resourceLimiter.Stop()
	}
	zLogger.Info().Msg("webnotifier stopped")
}

// collectTargetURLs merges URLs from the targets file with the config
// file's target_urls, normalizes them and drops duplicates.
func collectTargetURLs(gCfg *config.GlobalConfig, flags AppFlags, zLogger zerolog.Logger) []string {
	var raw []string

	if flags.TargetsFile != "" {
		urlsFromFile, err := urlhandler.ReadURLsFromFile(flags.TargetsFile, zLogger)
		if err != nil {
			zLogger.Error().Err(err).Str("file", flags.TargetsFile).Msg("Failed to load URLs from targets file, continuing without them")
		} else {
			raw = append(raw, urlsFromFile...)
		}
	}
	raw = append(raw, gCfg.MonitorConfig.TargetURLs...)

	seen := make(map[string]struct{}, len(raw))
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		normalized, err := urlhandler.NormalizeURL(u)
		if err != nil {
			zLogger.Warn().Err(err).Str("url", u).Msg("Skipping invalid target URL")
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
	}
	return urls
}

func startResourceLimiter(gCfg *config.GlobalConfig, zLogger zerolog.Logger) *rslimiter.ResourceLimiter {
	if !gCfg.LimiterConfig.Enabled {
		return nil
	}
	limiter := rslimiter.NewResourceLimiter(gCfg.LimiterConfig, zLogger)
	limiter.Start()
	return limiter
}
