package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
)

// PenaltyConfig sets the per-card penalty tiers applied to a loser's
// remaining hand when a match ends.
type PenaltyConfig struct {
	// DoubleAt is the remaining-card count from which each card costs
	// double points.
	DoubleAt int `json:"double_at"`
	// TripleAt is the remaining-card count from which each card costs
	// triple points.
	TripleAt int `json:"triple_at"`
}

// BotConfig tunes local bot pacing.
type BotConfig struct {
	DelayMinMS    int `json:"delay_min_ms"`
	DelayMaxMS    int `json:"delay_max_ms"`
	TurnTimeoutMS int `json:"turn_timeout_ms"` // host coordinator force-release deadline
}

// AutoPassConfig tunes the idle-turn countdown.
type AutoPassConfig struct {
	GraceMS    int `json:"grace_ms"`
	DurationMS int `json:"duration_ms"`
}

// SyncConfig tunes the remote projection's retry behavior.
type SyncConfig struct {
	FetchRetries     int `json:"fetch_retries"`
	RetryBackoffMS   int `json:"retry_backoff_ms"`
	CommandTimeoutMS int `json:"command_timeout_ms"`
}

// Config holds all configurable engine parameters.
type Config struct {
	BustThreshold int            `json:"bust_threshold"`
	Penalty       PenaltyConfig  `json:"penalty"`
	AutoPass      AutoPassConfig `json:"auto_pass"`
	Bot           BotConfig      `json:"bot"`
	Sync          SyncConfig     `json:"sync"`
}

// Defaults returns a Config with the standard ruleset values.
func Defaults() *Config {
	return &Config{
		BustThreshold: 101,
		Penalty:       PenaltyConfig{DoubleAt: 10, TripleAt: 13},
		AutoPass:      AutoPassConfig{GraceMS: 3000, DurationMS: 10000},
		Bot:           BotConfig{DelayMinMS: 600, DelayMaxMS: 1800, TurnTimeoutMS: 15000},
		Sync:          SyncConfig{FetchRetries: 3, RetryBackoffMS: 500, CommandTimeoutMS: 8000},
	}
}

// Load reads configuration from an optional config.json file, then applies
// environment variable overrides. Fields not set in either source retain
// their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit file path.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "path", path, "error", err)
		}
	}

	overrideInt(&cfg.BustThreshold, "BUST_THRESHOLD")
	overrideInt(&cfg.Penalty.DoubleAt, "PENALTY_DOUBLE_AT")
	overrideInt(&cfg.Penalty.TripleAt, "PENALTY_TRIPLE_AT")
	overrideInt(&cfg.AutoPass.GraceMS, "AUTO_PASS_GRACE_MS")
	overrideInt(&cfg.AutoPass.DurationMS, "AUTO_PASS_DURATION_MS")
	overrideInt(&cfg.Bot.DelayMinMS, "BOT_DELAY_MIN_MS")
	overrideInt(&cfg.Bot.DelayMaxMS, "BOT_DELAY_MAX_MS")
	overrideInt(&cfg.Bot.TurnTimeoutMS, "BOT_TURN_TIMEOUT_MS")
	overrideInt(&cfg.Sync.FetchRetries, "SYNC_FETCH_RETRIES")
	overrideInt(&cfg.Sync.RetryBackoffMS, "SYNC_RETRY_BACKOFF_MS")
	overrideInt(&cfg.Sync.CommandTimeoutMS, "SYNC_COMMAND_TIMEOUT_MS")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid env override", "key", envKey, "value", val)
		}
	}
}
