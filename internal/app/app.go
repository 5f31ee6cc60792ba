// Package app assembles the client process: configuration, logging, local
// persistence, the websocket gateway, and the fixed-rate game loop.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"rollcube/client/internal/config"
	"rollcube/client/internal/game"
	"rollcube/client/internal/net/ws"
	"rollcube/client/internal/orientation"
	"rollcube/client/internal/store"
	"rollcube/client/logging"
	loggingSinks "rollcube/client/logging/sinks"
)

// Run drives the whole client until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks
	logCfg.BufferSize = cfg.LogBufferSize
	logCfg.MinimumSeverity = parseSeverity(cfg.LogMinSeverity)

	for _, name := range cfg.LogSinks {
		switch name {
		case "console", "json":
		default:
			return fmt.Errorf("app: unknown log sink %q", name)
		}
	}

	var sinks []logging.NamedSink
	var jsonFile *os.File
	if logCfg.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") {
		path := cfg.LogJSONPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
		jsonFile, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("app: open json log %s: %w", path, err)
		}
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(jsonFile, logCfg.JSON.FlushInterval),
		})
	}

	router := logging.NewRouter(logging.SystemClock{}, logCfg, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		router.Close(closeCtx)
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	metrics := &logging.Metrics{}

	st, err := store.Open(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	settings, found, err := st.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if !found {
		settings = store.Settings{
			PlayerID:   uuid.NewString(),
			PlayerName: cfg.PlayerName,
		}
		if err := st.SaveSettings(ctx, settings); err != nil {
			return err
		}
	}

	pub := logging.WithFields(router, map[string]any{"playerId": settings.PlayerID})

	buffer := ws.NewEventBuffer(ws.DefaultEventBufferSize, metrics)

	var client *game.Client
	gateway := ws.NewGateway(cfg.ServerURL, cfg.WriteWait, buffer, pub, func(reason string) {
		client.NotifyDisconnect(reason)
	})

	client = game.NewClient(game.Options{
		LocalID:              settings.PlayerID,
		PlayerName:           settings.PlayerName,
		Color:                settings.Color,
		Groups:               orientation.MemoryGroups(),
		Events:               buffer,
		Transport:            gateway,
		Publisher:            pub,
		Metrics:              metrics,
		ShiftDuration:        cfg.ShiftDuration,
		TranslateDuration:    cfg.TranslateDuration,
		PoseInterval:         cfg.PoseInterval,
		HeartbeatInterval:    cfg.HeartbeatInterval,
		ReconnectBaseDelay:   cfg.ReconnectBaseDelay,
		ReconnectMaxAttempts: cfg.ReconnectMaxAttempts,
	})

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("app: connect to %s: %w", cfg.ServerURL, err)
	}
	defer gateway.Close()

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return persist(client, st)
		case now := <-ticker.C:
			client.Advance(ctx, now)
		}
	}
}

// persist folds the finished session into the local records.
func persist(client *game.Client, st *store.Store) error {
	// The run context is already cancelled; give persistence its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := client.Stats()
	record, _, err := st.LoadStatistics(ctx)
	if err != nil {
		return err
	}
	record.SessionsPlayed++
	record.ItemsCollected += stats.ItemsCollected
	record.GravityShifts += stats.GravityShifts
	record.LevelsCompleted += stats.LevelsCompleted
	if err := st.SaveStatistics(ctx, record); err != nil {
		return err
	}

	progress, _, err := st.LoadProgress(ctx)
	if err != nil {
		return err
	}
	if score := client.Items().Score(); score > progress.BestScore {
		progress.BestScore = score
	}
	if lvl := client.Level(); lvl != nil && lvl.Number > progress.HighestLevel {
		progress.HighestLevel = lvl.Number
	}
	return st.SaveProgress(ctx, progress)
}

func parseSeverity(value string) logging.Severity {
	switch value {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}
