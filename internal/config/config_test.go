package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(map[string]string{})
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.MaxRooms != 256 {
		t.Fatalf("MaxRooms = %d, want 256", cfg.MaxRooms)
	}
	if cfg.RoomIdleTimeout != 2*time.Hour {
		t.Fatalf("RoomIdleTimeout = %s, want 2h", cfg.RoomIdleTimeout)
	}
	if cfg.VoiceSecret != "" {
		t.Fatalf("VoiceSecret = %q, want empty default", cfg.VoiceSecret)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(map[string]string{
		"DUELBOARD_MAX_ROOMS":         "8",
		"DUELBOARD_ROOM_IDLE_TIMEOUT": "45m",
		"DUELBOARD_VOICE_ISSUER":      "iss",
		"DUELBOARD_VOICE_SECRET":      "sec",
	})
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.MaxRooms != 8 {
		t.Fatalf("MaxRooms = %d, want 8", cfg.MaxRooms)
	}
	if cfg.RoomIdleTimeout != 45*time.Minute {
		t.Fatalf("RoomIdleTimeout = %s, want 45m", cfg.RoomIdleTimeout)
	}
	if cfg.VoiceIssuer != "iss" || cfg.VoiceSecret != "sec" {
		t.Fatalf("voice config = %q/%q", cfg.VoiceIssuer, cfg.VoiceSecret)
	}
}

func TestFromEnvBadValue(t *testing.T) {
	if _, err := FromEnv(map[string]string{"DUELBOARD_MAX_ROOMS": "lots"}); err == nil {
		t.Fatal("expected parse error for non-numeric room cap")
	}
}
