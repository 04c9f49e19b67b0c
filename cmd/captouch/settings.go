package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gophertribe/captouch/cmd/captouch/console"
	"github.com/gophertribe/captouch/touch"
)

var sensitivityCmd = cli.Command{
	Name:    "sensitivity",
	Aliases: []string{"sens"},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "read the current sensitivity multiplier",
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				sens, err := sensor.GetSensitivity(ctx)
				if err != nil {
					return console.Exit(1, "error reading sensitivity: %s", console.Red(err))
				}
				console.Printf("sensitivity: %s\n", console.White(sens))
				return nil
			},
		},
		{
			Name:      "set",
			Usage:     "set the sensitivity multiplier",
			ArgsUsage: "<x1|x2|x4|x8|x16|x32|x64|x128>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				sens, err := parseSensitivity(c.Args().Get(0))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				if err = sensor.SetSensitivity(ctx, sens); err != nil {
					return console.Exit(1, "error setting sensitivity: %s", console.Red(err))
				}
				console.Printf("sensitivity set to %s\n", console.Green(sens))
				return nil
			},
		},
	},
}

var interruptCmd = cli.Command{
	Name:    "interrupt",
	Aliases: []string{"int"},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "list pads with interrupt generation enabled",
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				pads, err := sensor.GetInterruptSetting(ctx)
				if err != nil {
					return console.Exit(1, "error reading interrupt setting: %s", console.Red(err))
				}
				console.Printf("interrupts enabled for: %s\n", console.White(pads))
				return nil
			},
		},
		{
			Name:      "set",
			Usage:     "enable interrupt generation for exactly the given pads",
			ArgsUsage: "<all|none|left,center,right>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				pads, err := parsePads(c.Args().Get(0))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				if err = sensor.SetInterruptSetting(ctx, pads); err != nil {
					return console.Exit(1, "error setting interrupts: %s", console.Red(err))
				}
				console.Printf("interrupts enabled for: %s\n", console.Green(pads))
				return nil
			},
		},
		{
			Name:  "clear",
			Usage: "acknowledge the interrupt latch",
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				if err = sensor.ClearInterrupt(ctx); err != nil {
					return console.Exit(1, "error clearing interrupt: %s", console.Red(err))
				}
				console.Print("interrupt cleared")
				return nil
			},
		},
	},
}

var powerButtonCmd = cli.Command{
	Name:    "powerbutton",
	Aliases: []string{"pwr"},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "show the power button configuration",
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				enabled, err := sensor.GetPowerButtonEnabled(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button setting: %s", console.Red(err))
				}
				hold, err := sensor.GetPowerButtonTime(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button time: %s", console.Red(err))
				}
				pad, err := sensor.GetPowerButtonPad(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button pad: %s", console.Red(err))
				}
				console.PInfof(console.PictoButton, "enabled: %s, hold time: %s, pads: %s",
					console.White(enabled), console.White(hold), console.White(pad))
				return nil
			},
		},
		{
			Name:      "time",
			Usage:     "set the power button hold time",
			ArgsUsage: "<280ms|560ms|1.12s|2.24s>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				hold, err := parsePowerTime(c.Args().Get(0))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				if err = sensor.SetPowerButtonTime(ctx, hold); err != nil {
					return console.Exit(1, "error setting power button time: %s", console.Red(err))
				}
				console.Printf("power button hold time set to %s\n", console.Green(hold))
				return nil
			},
		},
		{
			Name:      "pad",
			Usage:     "select the pads acting as the power button",
			ArgsUsage: "<all|none|left,center,right>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				pads, err := parsePads(c.Args().Get(0))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				sensor, cleanup, err := openSensor(c)
				if err != nil {
					return console.Exit(1, "adapter initialization error: %s", console.Red(err))
				}
				defer cleanup()
				if err = sensor.SetPowerButtonPad(ctx, pads); err != nil {
					return console.Exit(1, "error setting power button pad: %s", console.Red(err))
				}
				console.Printf("power button pads set to %s\n", console.Green(pads))
				return nil
			},
		},
		{
			Name:  "enable",
			Usage: "enable the power button feature",
			Action: func(c *cli.Context) error {
				return setPowerButtonEnabled(c, true)
			},
		},
		{
			Name:  "disable",
			Usage: "disable the power button feature",
			Action: func(c *cli.Context) error {
				return setPowerButtonEnabled(c, false)
			},
		},
	},
}

func setPowerButtonEnabled(c *cli.Context, enabled bool) error {
	ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
	sensor, cleanup, err := openSensor(c)
	if err != nil {
		return console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	defer cleanup()
	if err = sensor.SetPowerButtonEnabled(ctx, enabled); err != nil {
		return console.Exit(1, "error switching power button: %s", console.Red(err))
	}
	console.Printf("power button enabled: %s\n", console.Green(enabled))
	return nil
}

func parseSensitivity(raw string) (touch.Sensitivity, error) {
	switch strings.ToLower(strings.TrimPrefix(raw, "x")) {
	case "1":
		return touch.SensitivityX1, nil
	case "2":
		return touch.SensitivityX2, nil
	case "4":
		return touch.SensitivityX4, nil
	case "8":
		return touch.SensitivityX8, nil
	case "16":
		return touch.SensitivityX16, nil
	case "32":
		return touch.SensitivityX32, nil
	case "64":
		return touch.SensitivityX64, nil
	case "128":
		return touch.SensitivityX128, nil
	default:
		return 0, fmt.Errorf("unknown sensitivity: %s", raw)
	}
}

func parsePowerTime(raw string) (touch.PowerTime, error) {
	switch strings.ToLower(raw) {
	case "280ms":
		return touch.PowerTime280ms, nil
	case "560ms":
		return touch.PowerTime560ms, nil
	case "1120ms", "1.12s":
		return touch.PowerTime1120ms, nil
	case "2240ms", "2.24s":
		return touch.PowerTime2240ms, nil
	default:
		return 0, fmt.Errorf("unknown power button time: %s", raw)
	}
}

func parsePads(raw string) (touch.Pad, error) {
	switch strings.ToLower(raw) {
	case "all":
		return touch.AllPads, nil
	case "none":
		return touch.NoPads, nil
	}
	pads := touch.NoPads
	for _, name := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "left":
			pads = pads.Union(touch.PadLeft)
		case "center", "middle":
			pads = pads.Union(touch.PadCenter)
		case "right":
			pads = pads.Union(touch.PadRight)
		default:
			return touch.NoPads, fmt.Errorf("unknown pad: %s", name)
		}
	}
	return pads, nil
}
