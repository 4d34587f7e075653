package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Play    PlayCmd          `cmd:"" default:"withargs" help:"Play in the terminal"`
	Score   ScoreCmd         `cmd:"" help:"Score a guess against a secret"`
	Presets PresetsCmd       `cmd:"" help:"List the available presets"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("baseball"),
		kong.Description("Number baseball: guess the hidden digits from strikes and balls"),
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
