// File: utils/config.go
package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable parameters for the server and the client.
// It is frozen after load; runtime overrides are explicit and local.
type Config struct {
	Websocket WebsocketConfig `yaml:"websocket"`

	// Timing
	BroadcastIntervalMs int `yaml:"broadcastIntervalMs"` // server tick period in ms

	// Sessions
	DisconnectGraceTicks uint64 `yaml:"disconnectGraceTicks"` // ticks a disconnected player is retained
	SendBufferHighWater  int    `yaml:"sendBufferHighWater"`  // queued messages per connection before drop/close
	DrainTimeoutMs       int    `yaml:"drainTimeoutMs"`       // shutdown drain budget in ms

	SpawnPoints  SpawnPointsConfig  `yaml:"spawnPoints"`
	Board        BoardConfig        `yaml:"board"`
	Reconnection ReconnectionConfig `yaml:"reconnection"`
	Prediction   PredictionConfig   `yaml:"prediction"`
	StatusBar    StatusBarConfig    `yaml:"statusBar"`

	LogLevel string `yaml:"logLevel"` // debug | info | warn | error
}

type WebsocketConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type SpawnPointsConfig struct {
	MaxCount    int    `yaml:"maxCount"`    // cap on spawn-list size
	ClearRadius int    `yaml:"clearRadius"` // Manhattan radius that must be free of players
	WaitMessage string `yaml:"waitMessage"` // text sent while a join waits for a spawn
}

// BoardConfig carries board-level overrides; zero values defer to SpawnPoints.
type BoardConfig struct {
	MaxSpawnPoints   int `yaml:"maxSpawnPoints"`
	SpawnClearRadius int `yaml:"spawnClearRadius"`
}

type ReconnectionConfig struct {
	Enabled      bool `yaml:"enabled"`
	MaxAttempts  int  `yaml:"maxAttempts"`
	RetryDelayMs int  `yaml:"retryDelay"`
}

type PredictionConfig struct {
	Enabled                  bool `yaml:"enabled"`
	ReconciliationIntervalMs int  `yaml:"reconciliationInterval"`
}

type StatusBarConfig struct {
	Threshold int `yaml:"threshold"` // board-width cutoff between two-line and one-line status
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		Websocket: WebsocketConfig{
			Host: "localhost",
			Port: 3001,
		},
		BroadcastIntervalMs:  250,
		DisconnectGraceTicks: 40,
		SendBufferHighWater:  64,
		DrainTimeoutMs:       2000,
		SpawnPoints: SpawnPointsConfig{
			MaxCount:    25,
			ClearRadius: 3,
			WaitMessage: "All spawn points are occupied, waiting for a free one...",
		},
		Reconnection: ReconnectionConfig{
			Enabled:      true,
			MaxAttempts:  10,
			RetryDelayMs: 1000,
		},
		Prediction: PredictionConfig{
			Enabled:                  true,
			ReconciliationIntervalMs: 5000,
		},
		StatusBar: StatusBarConfig{
			Threshold: 25,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TickPeriod converts the broadcast interval to a duration.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.BroadcastIntervalMs) * time.Millisecond
}

// MaxSpawnPoints resolves the board-level override against the spawn defaults.
func (c Config) MaxSpawnPoints() int {
	if c.Board.MaxSpawnPoints > 0 {
		return c.Board.MaxSpawnPoints
	}
	return c.SpawnPoints.MaxCount
}

// SpawnClearRadius resolves the board-level override against the spawn defaults.
func (c Config) SpawnClearRadius() int {
	if c.Board.SpawnClearRadius > 0 {
		return c.Board.SpawnClearRadius
	}
	return c.SpawnPoints.ClearRadius
}

// RetryDelay converts the client retry base delay to a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Reconnection.RetryDelayMs) * time.Millisecond
}

// ReconciliationInterval converts the prediction interval to a duration.
func (c Config) ReconciliationInterval() time.Duration {
	return time.Duration(c.Prediction.ReconciliationIntervalMs) * time.Millisecond
}

// DrainTimeout converts the shutdown drain budget to a duration.
func (c Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}
