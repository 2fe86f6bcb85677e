package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the game server"`
	Client   ClientCmd        `cmd:"" help:"Connect as an interactive client"`
	Validate ValidateCmd      `cmd:"" help:"Load game definitions and set each one up once"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("deckr"),
		kong.Description("Turn-based game engine and line-protocol game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
