package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lox/deckr/cmd/deckr/shared"
	"github.com/lox/deckr/internal/client"
	"github.com/lox/deckr/internal/tui"
)

// ClientCmd connects an interactive terminal client
type ClientCmd struct {
	Config    string `short:"c" default:"client.hcl" help:"Path to HCL configuration file"`
	Addr      string `short:"a" help:"Server address, host:port or a ws:// URL (overrides config)"`
	LogLevel  string `short:"l" help:"Log level (overrides config)"`
	LogFile   string `help:"Log file path (overrides config)"`
	NoColor   bool   `help:"Disable colors"`
	SecretKey string `env:"DECKR_SECRET_KEY" help:"Authenticate with this secret after connecting"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := shared.SetupLogger(logFile, cfg.UI.LogLevel)

	ctx := shared.SetupSignalHandler(logger)

	conn := client.NewClient(cfg.Server.Address, logger)
	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ConnectTimeout)*time.Second)
	err = conn.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Disconnect()

	if cfg.Server.SecretKey != "" {
		authCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.RequestTimeout)*time.Second)
		err := conn.Authenticate(authCtx, cfg.Server.SecretKey)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	logger.Info("Starting deckr client", "addr", cfg.Server.Address)
	return tui.Run(ctx, conn, tui.Options{
		Addr:    cfg.Server.Address,
		NoColor: cfg.UI.NoColor,
	}, logger)
}

func (c *ClientCmd) applyOverrides(cfg *client.ClientConfig) {
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}
	if c.NoColor {
		cfg.UI.NoColor = true
	}
	if c.SecretKey != "" {
		cfg.Server.SecretKey = c.SecretKey
	}
}
