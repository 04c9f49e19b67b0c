package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gophertribe/captouch/adapter"
	"github.com/gophertribe/captouch/cmd/captouch/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 adapter diagnostics",
	Subcommands: []*cli.Command{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err = enc.Encode(status); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name: "release",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err = enc.Encode(status); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	},
}
