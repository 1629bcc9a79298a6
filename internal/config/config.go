// Package config types the runtime settings the Nakama module reads from
// its environment block.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the room server. Defaults suit a small
// deployment; the room cap and idle timeout exist because the room
// collection would otherwise grow without bound.
type Config struct {
	// MaxRooms caps the live room count; 0 disables the cap.
	MaxRooms int `env:"DUELBOARD_MAX_ROOMS" envDefault:"256"`
	// RoomIdleTimeout evicts rooms untouched for this long; 0 disables.
	RoomIdleTimeout time.Duration `env:"DUELBOARD_ROOM_IDLE_TIMEOUT" envDefault:"2h"`
	// SweepInterval throttles how often the idle sweep may run.
	SweepInterval time.Duration `env:"DUELBOARD_SWEEP_INTERVAL" envDefault:"1m"`

	// Voice-chat token signing. Tokens are disabled while the secret is
	// empty; the RPC reports that to the caller rather than failing init.
	VoiceIssuer string `env:"DUELBOARD_VOICE_ISSUER"`
	VoiceSecret string `env:"DUELBOARD_VOICE_SECRET"`
	VoiceDomain string `env:"DUELBOARD_VOICE_DOMAIN" envDefault:"voice.duelboard.example"`
}

// FromEnv parses a Config out of the provided variables, typically the
// map Nakama exposes under RUNTIME_CTX_ENV.
func FromEnv(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
