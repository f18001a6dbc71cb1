package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string        `json:"tick_interval"`
	Storage      StorageConfig `json:"storage"`
	Nats         NatsConfig    `json:"nats"`
	Vault        VaultConfig   `json:"vault"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < time.Second {
		el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
	}

	el.Add(c.Storage.Validate())
	el.Add(c.Nats.Validate())
	el.Add(c.Vault.Validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0
	}
	return d
}
