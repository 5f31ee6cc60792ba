package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://localhost:8080/ws" {
		t.Fatalf("server URL = %q", cfg.ServerURL)
	}
	if cfg.TickRate != 15 {
		t.Fatalf("tick rate = %d", cfg.TickRate)
	}
	if cfg.ShiftDuration != 1500*time.Millisecond {
		t.Fatalf("shift duration = %v", cfg.ShiftDuration)
	}
	if cfg.ReconnectMaxAttempts != 5 || cfg.ReconnectBaseDelay != 2*time.Second {
		t.Fatalf("reconnect defaults = %d/%v", cfg.ReconnectMaxAttempts, cfg.ReconnectBaseDelay)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != "console" {
		t.Fatalf("log sinks = %v", cfg.LogSinks)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ROLLCUBE_SERVER_URL", "ws://play.example.com/ws")
	t.Setenv("ROLLCUBE_TICK_RATE", "30")
	t.Setenv("ROLLCUBE_LOG_SINKS", "console,json")
	t.Setenv("ROLLCUBE_HEARTBEAT_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://play.example.com/ws" {
		t.Fatalf("server URL = %q", cfg.ServerURL)
	}
	if cfg.TickRate != 30 {
		t.Fatalf("tick rate = %d", cfg.TickRate)
	}
	if len(cfg.LogSinks) != 2 {
		t.Fatalf("log sinks = %v", cfg.LogSinks)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Fatalf("heartbeat interval = %v", cfg.HeartbeatInterval)
	}
	if cfg.TickInterval() != time.Second/30 {
		t.Fatalf("tick interval = %v", cfg.TickInterval())
	}
}

func TestValidateRejectsBrokenSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.ServerURL = "" }},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"negative heartbeat", func(c *Config) { c.HeartbeatInterval = -time.Second }},
		{"zero pose interval", func(c *Config) { c.PoseInterval = 0 }},
		{"zero base delay", func(c *Config) { c.ReconnectBaseDelay = 0 }},
		{"zero attempt budget", func(c *Config) { c.ReconnectMaxAttempts = 0 }},
		{"zero shift duration", func(c *Config) { c.ShiftDuration = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(&cfg)
			if cfg.Validate() == nil {
				t.Fatal("broken config must be rejected")
			}
		})
	}
}
