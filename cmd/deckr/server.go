package main

import (
	"fmt"
	"os"

	"github.com/coder/quartz"

	"github.com/lox/deckr/cmd/deckr/shared"
	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/games"
	"github.com/lox/deckr/internal/randutil"
	"github.com/lox/deckr/internal/server"
)

// ServerCmd runs the game server
type ServerCmd struct {
	Config    string   `short:"c" default:"server.hcl" help:"Path to HCL configuration file"`
	Addr      string   `short:"a" help:"TCP address for the line protocol (overrides config)"`
	HTTPAddr  string   `name:"http-addr" help:"Address for the websocket and health endpoints (overrides config)"`
	LogLevel  string   `short:"l" help:"Log level (overrides config)"`
	SecretKey string   `env:"DECKR_SECRET_KEY" help:"Secret key for management requests (overrides config)"`
	Game      []string `short:"g" help:"Game definition to register at startup, repeatable"`
	Seed      *int64   `help:"Deterministic RNG seed for game set up (optional)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := shared.SetupLogger(os.Stderr, cfg.Server.LogLevel)

	seed := randutil.Seed()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	}

	clock := quartz.NewReal()
	master := server.NewGameMaster(gamedef.NewLoader(games.Catalog(), seed), logger, clock)
	for _, path := range cfg.Games {
		if _, err := master.Register(path); err != nil {
			return fmt.Errorf("register %s: %w", path, err)
		}
	}

	logger.Info("Starting deckr server",
		"addr", cfg.Server.Address,
		"http_addr", cfg.Server.HTTPAddress,
		"game_types", len(cfg.Games))

	srv := server.NewServer(cfg.Server, master, logger, clock)
	ctx := shared.SetupSignalHandler(logger)
	return srv.Run(ctx)
}

func (c *ServerCmd) applyOverrides(cfg *server.Config) {
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.HTTPAddr != "" {
		cfg.Server.HTTPAddress = c.HTTPAddr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.SecretKey != "" {
		cfg.Server.SecretKey = c.SecretKey
	}
	cfg.Games = append(cfg.Games, c.Game...)
}
