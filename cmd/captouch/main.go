package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "captouch"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "CAP1203 capacitive touch slider cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a yaml config file with adapter defaults",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "bus adapter to use (mcp2221, periph, gobot)",
		},
		&cli.StringFlag{
			Name:  "bus",
			Usage: "periph i2c bus name (empty opens the first available)",
		},
		&cli.IntFlag{
			Name:  "i2c-bus",
			Usage: "gobot i2c bus number (-1 selects the platform default)",
			Value: -1,
		},
		&cli.IntFlag{
			Name:  "addr",
			Usage: "device address",
			Value: 0x28,
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&touchCmd,
		&sensitivityCmd,
		&interruptCmd,
		&powerButtonCmd,
		&statusCmd,
		&initCmd,
		&resetCmd,
		&mcp2221Cmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}
