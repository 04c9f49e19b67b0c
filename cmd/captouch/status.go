package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gophertribe/captouch/cmd/captouch/console"
)

type chipStatus struct {
	ProductID      string `yaml:"product_id"`
	ManufacturerID string `yaml:"manufacturer_id"`
	Revision       string `yaml:"revision"`
	Sensitivity    string `yaml:"sensitivity"`
	Interrupts     string `yaml:"interrupts_enabled"`
	FailedPads     string `yaml:"failed_pads"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print chip identity, configuration and calibration errors",
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		var status chipStatus
		id, err := sensor.ProductID(ctx)
		if err != nil {
			return console.Exit(1, "error reading product id: %s", console.Red(err))
		}
		man, err := sensor.ManufacturerID(ctx)
		if err != nil {
			return console.Exit(1, "error reading manufacturer id: %s", console.Red(err))
		}
		rev, err := sensor.Revision(ctx)
		if err != nil {
			return console.Exit(1, "error reading revision: %s", console.Red(err))
		}
		sens, err := sensor.GetSensitivity(ctx)
		if err != nil {
			return console.Exit(1, "error reading sensitivity: %s", console.Red(err))
		}
		pads, err := sensor.GetInterruptSetting(ctx)
		if err != nil {
			return console.Exit(1, "error reading interrupt setting: %s", console.Red(err))
		}
		failed, err := sensor.CheckStatus(ctx)
		if err != nil {
			return console.Exit(1, "error reading chip status: %s", console.Red(err))
		}
		status.ProductID = hexByte(id)
		status.ManufacturerID = hexByte(man)
		status.Revision = hexByte(rev)
		status.Sensitivity = sens.String()
		status.Interrupts = pads.String()
		status.FailedPads = failed.String()
		if !failed.IsEmpty() {
			console.Warnf("calibration or base count failure on pads: %s", console.Yellow(failed))
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err = enc.Encode(status); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	},
}

var initCmd = cli.Command{
	Name:  "init",
	Usage: "apply driver defaults (x2 sensitivity, interrupts on all pads)",
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		if !sensor.IsConnected(ctx) {
			return console.Exit(1, "cannot connect to CAP1203")
		}
		if err = sensor.Configure(ctx); err != nil {
			return console.Exit(1, "error configuring sensor: %s", console.Red(err))
		}
		console.Print("sensor configured")
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "force recalibration of all three pads",
	Action: func(c *cli.Context) error {
		answer, err := console.YesOrNo("recalibrate all pads? touches are ignored until calibration finishes")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if answer != console.Yes {
			return nil
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer cleanup()
		if err = sensor.Reset(ctx); err != nil {
			return console.Exit(1, "error triggering recalibration: %s", console.Red(err))
		}
		console.Print("recalibration started")
		return nil
	},
}

func hexByte(b byte) string {
	return fmt.Sprintf("%#02x", b)
}
