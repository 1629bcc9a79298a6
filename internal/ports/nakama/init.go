package nakama

import (
	"context"
	"database/sql"

	"duelboard/internal/config"
	"duelboard/internal/registry"
	"duelboard/internal/voice"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires the room server into the Nakama runtime: one registry
// constructed here and injected into every RPC and match handler, never
// reached through a global.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.FromEnv(env)
	if err != nil {
		return err
	}

	reg := registry.New(registry.Options{
		MaxRooms:      cfg.MaxRooms,
		IdleTimeout:   cfg.RoomIdleTimeout,
		SweepInterval: cfg.SweepInterval,
	})

	srv := &server{
		reg:     reg,
		voice:   voice.NewService(cfg.VoiceSecret, cfg.VoiceIssuer, cfg.VoiceDomain),
		matches: &nakamaMatches{nk: nk},
	}

	if err := srv.registerRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameRoom, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{reg: reg}, nil
	}); err != nil {
		return err
	}

	logger.Info("duelboard module loaded (max_rooms=%d idle_timeout=%s voice=%v)", cfg.MaxRooms, cfg.RoomIdleTimeout, srv.voice.Enabled())
	return nil
}
