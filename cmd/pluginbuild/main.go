package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pluginbuild/cmd/pluginbuild/commands"
	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pluginbuild"),
		kong.Description("Fetch the SDK, build and package a game plugin."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), commands.TerminationSignals()...)
	global := &commands.Global{Context: ctx, Out: os.Stderr}

	err := parser.Run(global, cli)
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
