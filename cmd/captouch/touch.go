package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gophertribe/captouch/cmd/captouch/console"
	"github.com/gophertribe/captouch/touch"
)

var touchCmd = cli.Command{
	Name: "touch",
	Subcommands: []*cli.Command{
		&touchCheckCmd,
		&touchReadCmd,
		&touchWatchCmd,
	},
}

var touchCheckCmd = cli.Command{
	Name:  "check",
	Usage: "read the touched pads without clearing the interrupt latch",
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		pads, err := sensor.CheckTouched(ctx)
		if err != nil {
			return console.Exit(1, "error checking touch state: %s", console.Red(err))
		}
		printPads(pads)
		return nil
	},
}

var touchReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read the touched pads and acknowledge the interrupt",
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		pads, err := sensor.GetTouched(ctx)
		if err != nil {
			return console.Exit(1, "error reading touch state: %s", console.Red(err))
		}
		printPads(pads)
		return nil
	},
}

var touchWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the sensor and print touch events until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Value: 100 * time.Millisecond,
		},
	},
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				pads, err := sensor.GetTouched(ctx)
				if err != nil {
					console.Errorf("error reading touch state: %s", console.Red(err))
					continue
				}
				if !pads.IsEmpty() {
					console.PInfof(console.PictoTouch, "%s", console.Yellow(pads))
				}
			}
		}
	},
}

func printPads(pads touch.Pad) {
	if pads.IsEmpty() {
		console.PInfof(console.PictoTouch, "%s", console.Green(pads))
		return
	}
	console.PInfof(console.PictoTouch, "%s", console.Yellow(pads))
}
