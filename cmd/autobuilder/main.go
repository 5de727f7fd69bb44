package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/cmd/autobuilder/commands"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("autobuilder"),
		kong.Description("Static site export service: renders builds into downloadable ZIP bundles."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, cli)
	if err == nil {
		return
	}
	adapter := errors.NewCLIErrorAdapter(cli.Verbose, nil)
	adapter.Log(err)
	_, _ = fmt.Fprintln(os.Stderr, adapter.FormatError(err))
	os.Exit(adapter.ExitCodeFor(err))
}
