package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/gophertribe/captouch"
	"github.com/gophertribe/captouch/adapter"
	"github.com/gophertribe/captouch/i2c"
	"github.com/gophertribe/captouch/touch"
)

// openBus builds the transport selected by the config/flags. The returned
// cleanup func is a no-op for adapters without resources to free.
func openBus(cfg config) (captouch.I2CBus, func(), error) {
	switch cfg.Adapter {
	case "mcp2221":
		return adapter.NewMCP2221(), func() {}, nil
	case "periph":
		bus, err := i2c.NewGenericBus(cfg.Bus)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open periph bus: %w", err)
		}
		return bus, func() { _ = bus.Close() }, nil
	case "gobot":
		r := raspi.NewAdaptor()
		if err := r.Connect(); err != nil {
			return nil, nil, fmt.Errorf("could not connect gobot adaptor: %w", err)
		}
		bus := adapter.NewGobotBus(r, cfg.I2CBus)
		return bus, func() { _ = r.Finalize() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter: %s", cfg.Adapter)
	}
}

func openSensor(c *cli.Context) (*touch.CAP1203, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	bus, cleanup, err := openBus(cfg)
	if err != nil {
		return nil, nil, err
	}
	return touch.NewCAP1203(bus, touch.WithAddress(cfg.Address)), cleanup, nil
}
