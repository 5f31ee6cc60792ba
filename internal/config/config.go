// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable of the client process.
type Config struct {
	ServerURL  string `env:"ROLLCUBE_SERVER_URL" envDefault:"ws://localhost:8080/ws"`
	PlayerName string `env:"ROLLCUBE_PLAYER_NAME" envDefault:"player"`
	DataDir    string `env:"ROLLCUBE_DATA_DIR" envDefault:"."`

	TickRate          int           `env:"ROLLCUBE_TICK_RATE" envDefault:"15"`
	HeartbeatInterval time.Duration `env:"ROLLCUBE_HEARTBEAT_INTERVAL" envDefault:"2s"`
	PoseInterval      time.Duration `env:"ROLLCUBE_POSE_INTERVAL" envDefault:"100ms"`
	WriteWait         time.Duration `env:"ROLLCUBE_WRITE_WAIT" envDefault:"10s"`

	ReconnectBaseDelay   time.Duration `env:"ROLLCUBE_RECONNECT_BASE_DELAY" envDefault:"2s"`
	ReconnectMaxAttempts int           `env:"ROLLCUBE_RECONNECT_MAX_ATTEMPTS" envDefault:"5"`

	ShiftDuration     time.Duration `env:"ROLLCUBE_SHIFT_DURATION" envDefault:"1500ms"`
	TranslateDuration time.Duration `env:"ROLLCUBE_TRANSLATE_DURATION" envDefault:"180ms"`

	LogSinks       []string `env:"ROLLCUBE_LOG_SINKS" envDefault:"console" envSeparator:","`
	LogBufferSize  int      `env:"ROLLCUBE_LOG_BUFFER_SIZE" envDefault:"256"`
	LogMinSeverity string   `env:"ROLLCUBE_LOG_MIN_SEVERITY" envDefault:"info"`
	LogJSONPath    string   `env:"ROLLCUBE_LOG_JSON_PATH" envDefault:"client-events.ndjson"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the runtime cannot operate with.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: server URL must not be empty")
	}
	if c.TickRate < 1 {
		return fmt.Errorf("config: tick rate %d is invalid", c.TickRate)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("config: heartbeat interval %v is invalid", c.HeartbeatInterval)
	}
	if c.PoseInterval <= 0 {
		return fmt.Errorf("config: pose interval %v is invalid", c.PoseInterval)
	}
	if c.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("config: reconnect base delay %v is invalid", c.ReconnectBaseDelay)
	}
	if c.ReconnectMaxAttempts < 1 {
		return fmt.Errorf("config: reconnect attempt budget %d is invalid", c.ReconnectMaxAttempts)
	}
	if c.ShiftDuration <= 0 || c.TranslateDuration <= 0 {
		return fmt.Errorf("config: animation durations must be positive")
	}
	return nil
}

// TickInterval derives the loop period from the tick rate.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
